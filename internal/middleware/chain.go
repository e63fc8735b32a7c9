package middleware

import (
	"context"

	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/pkg/apperrors"
	"natours_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequestContext - то, что видят шаги проверки доступа. gin.Context сюда не попадает.
type RequestContext struct {
	Ctx context.Context
	DB  *gorm.DB

	// Authorization - значение заголовка как есть
	Authorization string
	// Cookie - значение cookie jwt, пустое если его нет
	Cookie string

	// Token - токен, выбранный ExtractToken
	Token string
	// User - проверенный пользователь, nil для анонима
	User *models.User
}

// Step либо возвращает обновленный контекст, либо ошибку, которая прерывает цепочку
type Step func(rc *RequestContext) (*RequestContext, error)

// ErrorResponder пишет ответ об ошибке шага
type ErrorResponder func(c *gin.Context, err error)

// Chain собирает шаги в один gin.HandlerFunc; ошибки уходят в стандартный JSON ответ
func Chain(steps ...Step) gin.HandlerFunc {
	return ChainWith(apperrors.HandleError, steps...)
}

// ChainWith - то же, что Chain, но с собственным ответом об ошибке (страницы сайта)
func ChainWith(respond ErrorResponder, steps ...Step) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := newRequestContext(c)

		for _, step := range steps {
			next, err := step(rc)
			if err != nil {
				respond(c, err)
				c.Abort()
				return
			}
			rc = next
		}

		if rc.User != nil {
			setIdentity(c, rc.User)
		}
		c.Next()
	}
}

func newRequestContext(c *gin.Context) *RequestContext {
	rc := &RequestContext{
		Ctx:           c.Request.Context(),
		Authorization: c.GetHeader("Authorization"),
	}
	if db, ok := c.Get(string(contextkeys.DBContextKey)); ok {
		rc.DB, _ = db.(*gorm.DB)
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		rc.Cookie = cookie
	}
	if user, ok := CurrentUser(c); ok {
		rc.User = user
	}
	return rc
}

// setIdentity прикрепляет пользователя к запросу: для хендлеров, шаблонов и логов
func setIdentity(c *gin.Context, user *models.User) {
	c.Set(string(contextkeys.IdentityContextKey), user)
	c.Set("user", user)
	ctx := logger.WithUserID(c.Request.Context(), user.ID)
	c.Request = c.Request.WithContext(ctx)
}

// CurrentUser - пользователь, прошедший проверку токена
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(string(contextkeys.IdentityContextKey))
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok && user != nil
}
