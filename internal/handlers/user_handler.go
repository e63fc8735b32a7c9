package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, guard middleware.Guard) {
	me := rg.Group("/users")
	me.Use(middleware.Protect(guard))
	{
		me.GET("/me", h.GetMe)
		me.PATCH("/updateMe", h.UpdateMe)
		me.DELETE("/deleteMe", h.DeleteMe)
	}

	admin := rg.Group("/users")
	admin.Use(middleware.Protect(guard), middleware.RestrictTo(models.UserRoleAdmin))
	{
		admin.GET("", h.ListUsers)
		admin.POST("", h.CreateUser)
		admin.GET("/:id", h.GetUser)
		admin.PATCH("/:id", h.UpdateUser)
		admin.DELETE("/:id", h.DeleteUser)
	}
}

// --- Текущий пользователь ---

func (h *UserHandler) GetMe(c *gin.Context) {
	current, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(h.GetDB(c), current.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	respondOne(c, http.StatusOK, user)
}

// UpdateMe принимает JSON или multipart с файлом photo
func (h *UserHandler) UpdateMe(c *gin.Context) {
	current, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateMeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	photo, ok := h.optionalFile(c, "photo")
	if !ok {
		return
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), h.GetDB(c), current.ID, &req, photo)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"user": user},
	})
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	current, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteMe(c.Request.Context(), h.GetDB(c), current.ID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// --- Администратор ---

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(h.GetDB(c), h.Spec(c, "role"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, users)
}

// CreateUser - пользователи создаются только через /signup
func (h *UserHandler) CreateUser(c *gin.Context) {
	apperrors.HandleError(c, apperrors.ErrUseSignup)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.AdminUpdateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(h.GetDB(c), id, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// optionalFile - файл из multipart формы; отсутствие файла не ошибка
func (h *BaseHandler) optionalFile(c *gin.Context, field string) (*multipart.FileHeader, bool) {
	if c.ContentType() != "multipart/form-data" {
		return nil, true
	}
	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid file field: "+field))
		return nil, false
	}
	return file, true
}
