package handlers

import (
	"net/http"
	"time"

	"natours_backend/internal/middleware"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
	cookieTTL   time.Duration
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
		cookieTTL:   cookieTTL,
	}
}

// RegisterRoutes регистрирует маршруты входа, выхода и сброса пароля в /users
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, guard middleware.Guard) {
	users := rg.Group("/users")
	{
		users.POST("/signup", h.Signup)
		users.POST("/login", h.Login)
		users.GET("/logout", h.Logout)
		users.POST("/forgotPassword", h.ForgotPassword)
		users.PATCH("/resetPassword/:token", h.ResetPassword)
	}

	protected := rg.Group("/users")
	protected.Use(middleware.Protect(guard))
	{
		protected.PATCH("/updateMyPassword", h.UpdateMyPassword)
	}
}

// Signup godoc
// @Summary Регистрация
// @Description Создает пользователя с ролью user и выдает токен (cookie jwt + тело ответа)
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.SignupRequest true "Имя, email, пароль и подтверждение"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/users/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	session, err := h.authService.Signup(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.sendToken(c, http.StatusCreated, session)
}

// Login godoc
// @Summary Вход
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Email и пароль"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	session, err := h.authService.Login(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.sendToken(c, http.StatusOK, session)
}

// Logout godoc
// @Summary Выход
// @Description Заменяет cookie jwt заглушкой на 10 секунд
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/users/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ForgotPassword godoc
// @Summary Запрос сброса пароля
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ForgotPasswordRequest true "Email"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /api/v1/users/forgotPassword [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), h.GetDB(c), req.Email); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

// ResetPassword godoc
// @Summary Сброс пароля по токену из письма
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Токен из письма"
// @Param body body dto.ResetPasswordRequest true "Новый пароль"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/users/resetPassword/{token} [patch]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	session, err := h.authService.ResetPassword(c.Request.Context(), h.GetDB(c), c.Param("token"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.sendToken(c, http.StatusOK, session)
}

// UpdateMyPassword godoc
// @Summary Смена пароля текущего пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.UpdatePasswordRequest true "Текущий и новый пароль"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/users/updateMyPassword [patch]
func (h *AuthHandler) UpdateMyPassword(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.UpdatePasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	session, err := h.authService.UpdatePassword(c.Request.Context(), h.GetDB(c), user.ID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.sendToken(c, http.StatusOK, session)
}

// sendToken выставляет cookie и отдает токен вместе с пользователем
func (h *AuthHandler) sendToken(c *gin.Context, code int, session *dto.Session) {
	middleware.SetAuthCookie(c, session.Token, h.cookieTTL)

	c.JSON(code, gin.H{
		"status": "success",
		"token":  session.Token,
		"data":   gin.H{"user": session.User},
	})
}
