package auth

import (
	"math"
	"time"
)

const (
	// MaxLoginAttempts — число неудачных входов подряд, после которого аккаунт блокируется.
	MaxLoginAttempts = 5
	// LockDuration — длительность блокировки.
	LockDuration = 5 * time.Minute
)

// LockState — состояние аккаунта на момент проверки.
type LockState struct {
	Locked           bool
	RemainingMinutes int
	// AttemptsLeft — сколько неудачных попыток осталось до блокировки.
	AttemptsLeft int
}

// State вычисляет состояние аккаунта. Аккаунт заблокирован, только если
// lockUntil задан и ещё не наступил.
func State(loginAttempts int, lockUntil *time.Time, now time.Time) LockState {
	if lockUntil != nil && lockUntil.After(now) {
		return LockState{
			Locked:           true,
			RemainingMinutes: remainingMinutes(*lockUntil, now),
		}
	}
	return LockState{AttemptsLeft: max(MaxLoginAttempts-loginAttempts, 0)}
}

func remainingMinutes(lockUntil, now time.Time) int {
	return int(math.Ceil(lockUntil.Sub(now).Minutes()))
}
