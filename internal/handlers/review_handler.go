package handlers

import (
	"net/http"

	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	*BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(base *BaseHandler, reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   base,
		reviewService: reviewService,
	}
}

// RegisterRoutes - /reviews и вложенный /tours/:id/reviews. Все маршруты только для вошедших.
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup, guard middleware.Guard) {
	protect := middleware.Protect(guard)
	authors := middleware.RestrictTo(models.UserRoleUser)
	owners := middleware.RestrictTo(models.UserRoleUser, models.UserRoleAdmin)

	reviews := rg.Group("/reviews")
	reviews.Use(protect)
	{
		reviews.GET("", h.ListReviews)
		reviews.POST("", authors, h.CreateReview)
		reviews.GET("/:id", h.GetReview)
		reviews.PATCH("/:id", owners, h.UpdateReview)
		reviews.DELETE("/:id", owners, h.DeleteReview)
	}

	nested := rg.Group("/tours/:id/reviews")
	nested.Use(protect)
	{
		nested.GET("", h.ListTourReviews)
		nested.POST("", authors, h.CreateTourReview)
	}
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	h.list(c, "")
}

// ListTourReviews - отзывы одного тура, :id - идентификатор тура
func (h *ReviewHandler) ListTourReviews(c *gin.Context) {
	tourID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	h.list(c, tourID)
}

func (h *ReviewHandler) list(c *gin.Context, tourID string) {
	reviews, err := h.reviewService.List(h.GetDB(c), h.Spec(c, "rating"), tourID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, reviews)
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	h.create(c, "")
}

func (h *ReviewHandler) CreateTourReview(c *gin.Context) {
	tourID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	h.create(c, tourID)
}

func (h *ReviewHandler) create(c *gin.Context, tourID string) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.Create(h.GetDB(c), user.ID, tourID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusCreated, review)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	review, err := h.reviewService.Get(h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.Update(h.GetDB(c), actorOf(user), id, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	user, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.Delete(h.GetDB(c), actorOf(user), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func actorOf(user *models.User) services.Actor {
	return services.Actor{ID: user.ID, Role: user.Role}
}
