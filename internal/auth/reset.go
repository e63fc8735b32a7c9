package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResetTokenTTL - сколько живет токен сброса пароля
const ResetTokenTTL = 10 * time.Minute

// NewResetToken возвращает пару: открытый токен (уходит в письмо)
// и его sha256-хеш (хранится в базе).
func NewResetToken() (plain, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf)
	return plain, HashResetToken(plain), nil
}

// HashResetToken - sha256 в hex
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
