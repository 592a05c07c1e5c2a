package service

import (
	"strings"

	"github.com/google/uuid"
)

// tokenPrefix префикс человекочитаемого номера заявки
const tokenPrefix = "CNS-"

// newToken генерирует номер заявки вида CNS-1A2B3C4D.
// Уникальность страхует unique-индекс по token.
func newToken() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return tokenPrefix + raw[:8]
}
