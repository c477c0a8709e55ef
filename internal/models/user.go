// Package models содержит доменные модели: пользователей, посты,
// комментарии и реакции на посты.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User — учётная запись вместе со счётчиком неудачных входов.
type User struct {
	UUID          string
	Email         string
	Username      string
	PasswordHash  string
	Role          string
	LoginAttempts int
	LockUntil     *time.Time // Блокировка действует, пока LockUntil в будущем
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser — поля пользователя, которые можно отдавать клиенту.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public отбрасывает хеш пароля и служебные счётчики.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.UUID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
