package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Status string `json:"status"`
	Error  struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details"`
	} `json:"error"`
}

func respond(t *testing.T, debug bool, err error) (int, errorBody) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	h := &GinErrorHandler{Debug: debug}
	h.HandleGinError(c, err)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleGinError_ProductionHidesInternals(t *testing.T) {
	cases := map[string]error{
		"plain error":   errors.New("pq: relation \"tours\" does not exist"),
		"wrapped error": InternalError(errors.New("connection refused")),
	}

	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			code, body := respond(t, false, err)
			assert.Equal(t, http.StatusInternalServerError, code)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, CodeInternalError, body.Error.Code)
			assert.Equal(t, "Something went wrong.", body.Error.Message)
			assert.Nil(t, body.Error.Details)
		})
	}
}

func TestHandleGinError_DebugKeepsDetails(t *testing.T) {
	code, body := respond(t, true, fmt.Errorf("load tour: %w", errors.New("boom")))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body.Error.Message)
	assert.Equal(t, "load tour: boom", body.Error.Details)
}

func TestHandleGinError_OperationalErrorsPassThrough(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		status  string
		message string
	}{
		{ErrNotLoggedIn, http.StatusUnauthorized, "fail", "You are not logged in! Please log in to get access"},
		{ErrInsufficientPermissions, http.StatusForbidden, "fail", "You do not have permission to perform this operation."},
		{ErrUseSignup, http.StatusInternalServerError, "error", "This route is not defined. Please use /signup instead."},
		{ErrPaymentFailed(errors.New("stripe down")), http.StatusBadGateway, "error", "Payment provider is unavailable. Please try again later."},
		{ErrRouteNotFound("/api/v1/nope"), http.StatusNotFound, "fail", "Can't find /api/v1/nope on this server!"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			// в продакшене операционные ошибки не скрываются
			code, body := respond(t, false, tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestHandleGinError_SharedSentinelUntouched(t *testing.T) {
	before := *ErrUseSignup
	respond(t, false, ErrUseSignup)
	respond(t, true, ErrUseSignup)
	assert.Equal(t, before, *ErrUseSignup)
}

func TestValidationError_MessageListsFields(t *testing.T) {
	err := ValidationError(map[string]string{
		"price": "must be greater than 0",
		"name":  "is required",
	})
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode)
	assert.Contains(t, err.Message, "Invalid input data.")
	assert.Contains(t, err.Message, "name")
	assert.Contains(t, err.Message, "price")
}
