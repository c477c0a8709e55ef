package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestState(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name      string
		attempts  int
		lockUntil *time.Time
		want      LockState
	}{
		{name: "fresh account", attempts: 0, want: LockState{AttemptsLeft: 5}},
		{name: "some failures", attempts: 3, want: LockState{AttemptsLeft: 2}},
		{name: "locked full window", attempts: 5, lockUntil: at(5 * time.Minute),
			want: LockState{Locked: true, RemainingMinutes: 5}},
		{name: "partial minute rounds up", attempts: 5, lockUntil: at(2*time.Minute + time.Second),
			want: LockState{Locked: true, RemainingMinutes: 3}},
		{name: "one second left", attempts: 5, lockUntil: at(time.Second),
			want: LockState{Locked: true, RemainingMinutes: 1}},
		{name: "expires exactly now", attempts: 5, lockUntil: at(0), want: LockState{}},
		{name: "expired lock is not locked", attempts: 1, lockUntil: at(-time.Minute),
			want: LockState{AttemptsLeft: 4}},
		{name: "counter above threshold without lock", attempts: 7, want: LockState{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, State(tt.attempts, tt.lockUntil, now))
		})
	}
}

func TestLockedError_Message(t *testing.T) {
	assert.Equal(t, "Too many failed attempts. Account is locked for 5 minutes.",
		(&LockedError{Minutes: 5, JustLocked: true}).Error())
	assert.Equal(t, "Account is locked. Please try again in 3 minutes.",
		(&LockedError{Minutes: 3}).Error())
}
