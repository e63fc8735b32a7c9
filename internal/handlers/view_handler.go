package handlers

import (
	"net/http"

	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"
	"natours_backend/internal/views"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ViewHandler отдает страницы сайта. Шаблоны загружает роутер (SetHTMLTemplate).
type ViewHandler struct {
	*BaseHandler
	tourService services.TourService
	userService services.UserService
	debug       bool
}

func NewViewHandler(base *BaseHandler, tourService services.TourService, userService services.UserService, debug bool) *ViewHandler {
	return &ViewHandler{
		BaseHandler: base,
		tourService: tourService,
		userService: userService,
		debug:       debug,
	}
}

func (h *ViewHandler) RegisterRoutes(r gin.IRouter, guard middleware.Guard) {
	site := r.Group("")
	site.Use(middleware.IsLoggedIn(guard))
	{
		site.GET("/", h.Overview)
		site.GET("/tour/:slug", h.Tour)
		site.GET("/login", h.Login)
		site.GET("/signup", h.Signup)
	}

	// ошибки входа показываются страницей, а не JSON
	account := r.Group("")
	account.Use(middleware.ChainWith(h.renderError, middleware.ExtractToken, middleware.VerifyToken(guard)))
	{
		account.GET("/me", h.Account)
		account.GET("/my-tours", h.MyTours)
		account.POST("/submit-user-data", h.SubmitUserData)
	}
}

func (h *ViewHandler) Overview(c *gin.Context) {
	tours, err := h.tourService.Overview(h.GetDB(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "overview.html", views.Page{Title: "All Tours", Tours: tours})
}

func (h *ViewHandler) Tour(c *gin.Context) {
	tour, err := h.tourService.GetTourBySlug(h.GetDB(c), c.Param("slug"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "tour.html", views.Page{Title: tour.Name + " Tour", Tour: tour})
}

func (h *ViewHandler) Login(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", views.Page{Title: "Log into your account"})
}

func (h *ViewHandler) Signup(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", views.Page{Title: "Create your account"})
}

func (h *ViewHandler) Account(c *gin.Context) {
	h.render(c, http.StatusOK, "account.html", views.Page{Title: "Your account"})
}

// MyTours - туры из бронирований текущего пользователя
func (h *ViewHandler) MyTours(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.renderError(c, apperrors.ErrNotLoggedIn)
		return
	}

	tours, err := h.tourService.BookedTours(h.GetDB(c), user.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "overview.html", views.Page{Title: "My Tours", Tours: tours})
}

// SubmitUserData - обычная HTML форма смены имени и email
func (h *ViewHandler) SubmitUserData(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.renderError(c, apperrors.ErrNotLoggedIn)
		return
	}

	name, email := c.PostForm("name"), c.PostForm("email")
	req := dto.UpdateMeRequest{Name: &name, Email: &email}
	if err := h.validator.Validate(&req); err != nil {
		h.renderError(c, apperrors.ValidationError(validationDetails(err)))
		return
	}

	updated, err := h.userService.UpdateMe(c.Request.Context(), h.GetDB(c), user.ID, &req, nil)
	if err != nil {
		h.renderError(c, err)
		return
	}

	page := views.Page{Title: "Your account", User: updated}
	h.render(c, http.StatusOK, "account.html", page)
}

// render дополняет страницу вошедшим пользователем и уведомлением из ?alert=
func (h *ViewHandler) render(c *gin.Context, code int, name string, page views.Page) {
	if page.User == nil {
		page.User, _ = middleware.CurrentUser(c)
	}
	if page.Alert == "" {
		page.Alert = views.AlertFor(c.Query("alert"))
	}
	c.HTML(code, name, page)
}

// renderError - страница ошибки; в продакшене неизвестные ошибки без подробностей
func (h *ViewHandler) renderError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	msg := "Please try again later."

	if appErr, ok := apperrors.AsAppError(err); ok {
		code = appErr.HTTPCode
		if appErr.Code != apperrors.CodeInternalError || h.debug {
			msg = appErr.Message
		}
	} else if h.debug {
		msg = err.Error()
	}

	if code >= http.StatusInternalServerError {
		logger.CtxWithError(c.Request.Context(), "View rendering failed", err, "path", c.Request.URL.Path)
	}

	h.render(c, code, "error.html", views.Page{Title: "Something went wrong!", Msg: msg})
	c.Abort()
}
