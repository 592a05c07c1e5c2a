package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    AppointmentStatus
		to      AppointmentStatus
		allowed bool
	}{
		{"pending to approved", AppointmentStatusPending, AppointmentStatusApproved, true},
		{"pending to declined", AppointmentStatusPending, AppointmentStatusDeclined, true},
		{"pending to cancelled", AppointmentStatusPending, AppointmentStatusCancelled, true},
		{"approved to completed", AppointmentStatusApproved, AppointmentStatusCompleted, true},
		{"approved to no_show", AppointmentStatusApproved, AppointmentStatusNoShow, true},
		{"approved to cancelled", AppointmentStatusApproved, AppointmentStatusCancelled, true},

		{"pending to completed", AppointmentStatusPending, AppointmentStatusCompleted, false},
		{"pending to no_show", AppointmentStatusPending, AppointmentStatusNoShow, false},
		{"approved to pending", AppointmentStatusApproved, AppointmentStatusPending, false},
		{"approved to declined", AppointmentStatusApproved, AppointmentStatusDeclined, false},
		{"declined to approved", AppointmentStatusDeclined, AppointmentStatusApproved, false},
		{"cancelled to pending", AppointmentStatusCancelled, AppointmentStatusPending, false},
		{"completed to cancelled", AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{"no_show to approved", AppointmentStatusNoShow, AppointmentStatusApproved, false},
		{"pending to pending", AppointmentStatusPending, AppointmentStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(AppointmentStatusPending))
	assert.False(t, IsTerminal(AppointmentStatusApproved))

	for _, s := range []AppointmentStatus{
		AppointmentStatusDeclined,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
		AppointmentStatusCancelled,
	} {
		assert.True(t, IsTerminal(s), "status %s", s)
	}
}

// Каждый выход из pending/approved либо оставляет слот занятым
// (approved, completed), либо освобождает его
func TestReleases(t *testing.T) {
	assert.True(t, Releases(AppointmentStatusDeclined))
	assert.True(t, Releases(AppointmentStatusCancelled))
	assert.True(t, Releases(AppointmentStatusNoShow))

	assert.False(t, Releases(AppointmentStatusApproved))
	assert.False(t, Releases(AppointmentStatusCompleted))
	assert.False(t, Releases(AppointmentStatusPending))
}
