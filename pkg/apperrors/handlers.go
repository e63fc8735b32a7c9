package apperrors

import (
	"sync/atomic"

	"natours_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// genericMessage - то, что видит клиент в продакшене вместо неизвестной ошибки
const genericMessage = "Something went wrong."

var debugMode atomic.Bool

func init() {
	debugMode.Store(true)
}

// SetDebug включает или выключает подробные ответы об ошибках.
// Вызывается один раз при старте из app.Run в зависимости от окружения.
func SetDebug(debug bool) {
	debugMode.Store(debug)
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Status string    `json:"status"`
	Error  *AppError `json:"error"`
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

// HandleGinError - основная логика обработки ошибок для Gin
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		// Неизвестная (не операционная) ошибка
		appErr = InternalError(err)
	}

	if appErr.Code == CodeInternalError {
		// копия: исходная ошибка может быть общей
		shown := *appErr
		if h.Debug {
			if shown.Details == nil && shown.Err != nil {
				shown.Details = shown.Err.Error()
			}
		} else {
			shown.Message = genericMessage
			shown.Details = nil
		}
		appErr = &shown
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxError(c.Request.Context(), "Server error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", appErr.Unwrap(),
		)
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{
		Status: StatusFor(appErr.HTTPCode),
		Error:  appErr,
	})
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: debugMode.Load()}
	handler.HandleGinError(c, err)
}

// StatusFor возвращает "fail" для ошибок клиента и "error" для ошибок сервера
func StatusFor(httpCode int) string {
	if httpCode >= 500 {
		return "error"
	}
	return "fail"
}
