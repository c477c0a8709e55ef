package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFields — не заполнено обязательное поле.
	ErrMissingFields = errors.New("missing required fields")
	// ErrDuplicateEmail — email уже зарегистрирован.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidCredentials — неизвестный email или неверный пароль.
	// Оба случая намеренно неразличимы.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidToken — токен не прошёл проверку.
	ErrInvalidToken = errors.New("invalid token")
)

// LockedError — аккаунт заблокирован после серии неудачных входов.
type LockedError struct {
	// Minutes — сколько минут осталось до снятия блокировки (с округлением вверх).
	Minutes int
	// JustLocked — блокировку выставила именно эта попытка.
	JustLocked bool
}

func (e *LockedError) Error() string {
	if e.JustLocked {
		return fmt.Sprintf("Too many failed attempts. Account is locked for %d minutes.", e.Minutes)
	}
	return fmt.Sprintf("Account is locked. Please try again in %d minutes.", e.Minutes)
}
