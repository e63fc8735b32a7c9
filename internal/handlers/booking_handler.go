package handlers

import (
	"io"
	"net/http"

	"natours_backend/internal/auth"
	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// webhookBodyLimit - события Stripe намного меньше
const webhookBodyLimit = 64 << 10

type BookingHandler struct {
	*BaseHandler
	bookingService services.BookingService
}

func NewBookingHandler(base *BaseHandler, bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{
		BaseHandler:    base,
		bookingService: bookingService,
	}
}

func (h *BookingHandler) RegisterRoutes(rg *gin.RouterGroup, guard middleware.Guard) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.Protect(guard))
	{
		bookings.GET("/checkout-session/:tourId", h.CheckoutSession)
		bookings.GET("/my", h.MyBookings)
	}

	admin := rg.Group("/bookings")
	admin.Use(middleware.Protect(guard), middleware.RestrictTo(auth.TourManagers...))
	{
		admin.GET("", h.ListBookings)
		admin.POST("", h.CreateBooking)
		admin.GET("/:id", h.GetBooking)
		admin.PATCH("/:id", h.UpdateBooking)
		admin.DELETE("/:id", h.DeleteBooking)
	}
}

// RegisterWebhook - вебхук читает сырое тело, поэтому регистрируется вне JSON middleware
func (h *BookingHandler) RegisterWebhook(r gin.IRouter) {
	r.POST("/webhook-checkout", h.WebhookCheckout)
}

// CheckoutSession godoc
// @Summary Сессия оплаты Stripe Checkout для тура
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param tourId path string true "ID тура"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 502 {object} apperrors.ErrorResponse
// @Router /api/v1/bookings/checkout-session/{tourId} [get]
func (h *BookingHandler) CheckoutSession(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	tourID, ok := h.ParamID(c, "tourId")
	if !ok {
		return
	}

	session, err := h.bookingService.CreateCheckoutSession(c.Request.Context(), h.GetDB(c), user, tourID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"session": session,
	})
}

// WebhookCheckout godoc
// @Summary Вебхук Stripe о завершенной оплате
// @Tags bookings
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись Stripe"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /webhook-checkout [post]
func (h *BookingHandler) WebhookCheckout(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit))
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "Failed to read webhook body", err)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Webhook error: unreadable body"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.bookingService.HandleWebhook(c.Request.Context(), h.GetDB(c), payload, signature); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *BookingHandler) MyBookings(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.MyBookings(h.GetDB(c), user.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, bookings)
}

// --- Администратор и ведущий гид ---

func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookingService.List(h.GetDB(c), h.Spec(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, bookings)
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	booking, err := h.bookingService.Create(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusCreated, booking)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.Get(h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, booking)
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateBookingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	booking, err := h.bookingService.Update(h.GetDB(c), id, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, booking)
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.bookingService.Delete(h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
