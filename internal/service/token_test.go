package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := newToken()

		assert.Len(t, token, len(tokenPrefix)+8)
		assert.True(t, strings.HasPrefix(token, tokenPrefix))
		assert.Equal(t, token, strings.ToUpper(token))

		assert.False(t, seen[token], "token collision: %s", token)
		seen[token] = true
	}
}
