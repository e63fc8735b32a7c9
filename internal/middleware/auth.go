package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"natours_backend/internal/models"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	CookieName = "jwt"
	// LoggedOutValue - значение cookie после выхода
	LoggedOutValue = "loggedout"

	logoutCookieTTL = 10 * time.Second
)

// Guard проверяет токен и возвращает его владельца
type Guard interface {
	Verify(ctx context.Context, db *gorm.DB, token string) (*models.User, error)
}

// ExtractToken - сначала заголовок Authorization: Bearer, потом cookie jwt
func ExtractToken(rc *RequestContext) (*RequestContext, error) {
	next := *rc
	if strings.HasPrefix(rc.Authorization, "Bearer ") {
		next.Token = strings.TrimSpace(strings.TrimPrefix(rc.Authorization, "Bearer "))
	} else if rc.Cookie != "" && rc.Cookie != LoggedOutValue {
		next.Token = rc.Cookie
	}

	if next.Token == "" {
		return nil, apperrors.ErrNotLoggedIn
	}
	return &next, nil
}

// VerifyToken проверяет выбранный токен через guard
func VerifyToken(guard Guard) Step {
	return func(rc *RequestContext) (*RequestContext, error) {
		user, err := guard.Verify(rc.Ctx, rc.DB, rc.Token)
		if err != nil {
			return nil, err
		}
		next := *rc
		next.User = user
		return &next, nil
	}
}

// SoftVerify - только cookie, любая ошибка оставляет запрос анонимным
func SoftVerify(guard Guard) Step {
	return func(rc *RequestContext) (*RequestContext, error) {
		if rc.Cookie == "" || rc.Cookie == LoggedOutValue {
			return rc, nil
		}
		user, err := guard.Verify(rc.Ctx, rc.DB, rc.Cookie)
		if err != nil {
			return rc, nil
		}
		next := *rc
		next.User = user
		return &next, nil
	}
}

// Authorize пропускает только перечисленные роли. Ставится после VerifyToken.
func Authorize(roles ...models.UserRole) Step {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(rc *RequestContext) (*RequestContext, error) {
		if rc.User == nil {
			return nil, apperrors.ErrNotLoggedIn
		}
		if !allowed[rc.User.Role] {
			return nil, apperrors.ErrInsufficientPermissions
		}
		return rc, nil
	}
}

// Protect - маршрут только для вошедших пользователей
func Protect(guard Guard) gin.HandlerFunc {
	return Chain(ExtractToken, VerifyToken(guard))
}

// IsLoggedIn делает пользователя доступным шаблонам, но никогда не отказывает
func IsLoggedIn(guard Guard) gin.HandlerFunc {
	return Chain(SoftVerify(guard))
}

// RestrictTo ставится после Protect
func RestrictTo(roles ...models.UserRole) gin.HandlerFunc {
	return Chain(Authorize(roles...))
}

// SetAuthCookie выставляет cookie сессии. Secure - только при HTTPS, в том числе за прокси.
func SetAuthCookie(c *gin.Context, token string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   isSecure(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie заменяет токен заглушкой, которая живет 10 секунд
func ClearAuthCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    LoggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(logoutCookieTTL),
		HttpOnly: true,
	})
}

func isSecure(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
