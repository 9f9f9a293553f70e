// Package jwt реализует генерацию и разбор JWT токенов участников клуба.
//
// Токен выпускает внешний сервис пользователей; здесь он проверяется подписью HS256
// и из него извлекаются идентификатор участника и роль.
package jwt

import (
	"time"
)

// Maker описывает генерацию и разбор JWT токенов.
type Maker interface {
	// GenerateToken подписывает токен для участника с указанной ролью.
	GenerateToken(memberID int64, role string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на секретном ключе и TTL.
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
