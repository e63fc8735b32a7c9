package handlers

import (
	"fmt"
	"net/http"

	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/query"
	"natours_backend/internal/validator"
	"natours_backend/pkg/apperrors"
	"natours_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// GetDB - транзакция или пул запроса, который положил DBMiddleware.
// Отсутствие ключа означает ошибку сборки роутера, поэтому паника.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	val, _ := c.Get(string(contextkeys.DBContextKey))
	if db, ok := val.(*gorm.DB); ok {
		return db
	}

	logger.CtxError(c.Request.Context(), "request has no *gorm.DB", "got", fmt.Sprintf("%T", val))
	panic("handlers: DBMiddleware is not installed")
}

// ============================================================================
// 2. Привязка и валидация
// ============================================================================

// BindAndValidate_JSON читает тело (JSON или форму, по Content-Type) и валидирует его
func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind request body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}

	return h.validate(c, obj)
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// ============================================================================
// 3. Ошибки
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	appErr, ok := apperrors.AsAppError(err)
	switch {
	case !ok:
		logger.CtxWithError(ctx, "Unexpected service error", err, "path", c.Request.URL.Path)
	case appErr.HTTPCode < http.StatusInternalServerError:
		logger.CtxDebug(ctx, "Request rejected", "code", appErr.Code, "path", c.Request.URL.Path)
	default:
		logger.CtxWarn(ctx, "Service error", "code", appErr.Code, "error", appErr.Message, "path", c.Request.URL.Path)
	}
	apperrors.HandleError(c, err)
}

// ============================================================================
// 4. Вспомогательные функции
// ============================================================================

// CurrentUser - пользователь, прикрепленный Protect. Без него отвечает 401.
func (h *BaseHandler) CurrentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: no identity in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.ErrNotLoggedIn)
		return nil, false
	}
	return user, true
}

// ParamID читает идентификатор из пути и проверяет, что это UUID
func (h *BaseHandler) ParamID(c *gin.Context, key string) (string, bool) {
	id := c.Param(key)
	if _, err := uuid.Parse(id); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError(fmt.Sprintf("Invalid %s: %s.", key, id)))
		return "", false
	}
	return id, true
}

// Spec разбирает строку запроса списка
func (h *BaseHandler) Spec(c *gin.Context, multiValue ...string) *query.Spec {
	return query.Parse(c.Request.URL.Query(), multiValue...)
}

// ============================================================================
// 5. Конверт ответа
// ============================================================================

// dataEnvelope - {status: "success", data: {data: ...}}
func dataEnvelope(data interface{}) gin.H {
	return gin.H{
		"status": "success",
		"data":   gin.H{"data": data},
	}
}

func respondOne(c *gin.Context, code int, data interface{}) {
	c.JSON(code, dataEnvelope(data))
}

func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	body := dataEnvelope(items)
	body["results"] = len(items)
	c.JSON(http.StatusOK, body)
}

// validationDetails - карта "поле -> сообщение" из ошибки валидатора
func validationDetails(err error) interface{} {
	if vErr, ok := err.(*validator.ValidationError); ok {
		return vErr.Errors
	}
	return err.Error()
}
