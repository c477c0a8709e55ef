// Package jwt выпускает и проверяет подписанные токены доступа.
//
// Токен несёт идентификатор пользователя в поле sub и живёт TokenTTL.
package jwt

import (
	"time"
)

// TokenTTL — срок жизни токена доступа.
const TokenTTL = 3 * time.Hour

// Maker описывает выпуск и разбор токенов.
type Maker interface {
	GenerateToken(userUID string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 секретным ключом.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт MakerImpl с секретом и временем жизни токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}
