package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"natours_backend/internal/auth"
	"natours_backend/internal/middleware"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// поля, для которых повторяющийся параметр строки запроса превращается в IN
var tourMultiValueFields = []string{"difficulty"}

// top5Cheap - готовый запрос для /top-5-cheap
var top5Cheap = url.Values{
	"limit":  {"5"},
	"sort":   {"-ratingsAverage,price"},
	"fields": {"name,price,ratingsAverage,summary,difficulty"},
}

type TourHandler struct {
	*BaseHandler
	tourService services.TourService
}

func NewTourHandler(base *BaseHandler, tourService services.TourService) *TourHandler {
	return &TourHandler{
		BaseHandler: base,
		tourService: tourService,
	}
}

func (h *TourHandler) RegisterRoutes(rg *gin.RouterGroup, guard middleware.Guard) {
	tours := rg.Group("/tours")
	{
		tours.GET("", h.ListTours)
		tours.GET("/top-5-cheap", h.TopCheap)
		tours.GET("/tour-stats", h.Stats)
		tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.ToursWithin)
		tours.GET("/distances/:latlng/unit/:unit", h.Distances)
		tours.GET("/:id", h.GetTour)
	}

	staff := rg.Group("/tours")
	staff.Use(middleware.Protect(guard), middleware.RestrictTo(auth.TourStaff...))
	{
		staff.GET("/monthly-plan/:year", h.MonthlyPlan)
	}

	manage := rg.Group("/tours")
	manage.Use(middleware.Protect(guard), middleware.RestrictTo(auth.TourManagers...))
	{
		manage.POST("", h.CreateTour)
		manage.PATCH("/:id", h.UpdateTour)
		manage.DELETE("/:id", h.DeleteTour)
	}
}

// ListTours godoc
// @Summary Список туров
// @Description Фильтр (price[gte]=..., difficulty=...), sort, fields, page, limit
// @Tags tours
// @Produce json
// @Param sort query string false "Поля сортировки через запятую, '-' - по убыванию"
// @Param fields query string false "Поля ответа через запятую; -name исключает поле"
// @Param page query int false "Страница"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/tours [get]
func (h *TourHandler) ListTours(c *gin.Context) {
	tours, err := h.tourService.ListTours(h.GetDB(c), h.Spec(c, tourMultiValueFields...))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, tours)
}

// TopCheap godoc
// @Summary Пять лучших недорогих туров
// @Tags tours
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/tours/top-5-cheap [get]
func (h *TourHandler) TopCheap(c *gin.Context) {
	values := c.Request.URL.Query()
	for key, v := range top5Cheap {
		values[key] = v
	}
	c.Request.URL.RawQuery = values.Encode()

	h.ListTours(c)
}

// Stats godoc
// @Summary Статистика по сложности для туров с рейтингом от 4.5
// @Tags tours
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/tours/tour-stats [get]
func (h *TourHandler) Stats(c *gin.Context) {
	stats, err := h.tourService.Stats(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"stats": stats},
	})
}

// MonthlyPlan godoc
// @Summary Старты туров по месяцам
// @Tags tours
// @Produce json
// @Security BearerAuth
// @Param year path int true "Год"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/v1/tours/monthly-plan/{year} [get]
func (h *TourHandler) MonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid year: "+c.Param("year")+"."))
		return
	}

	plan, err := h.tourService.MonthlyPlan(h.GetDB(c), year)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"plan": plan},
	})
}

// ToursWithin godoc
// @Summary Туры в радиусе от точки
// @Tags tours
// @Produce json
// @Param distance path number true "Радиус"
// @Param latlng path string true "lat,lng"
// @Param unit path string true "mi или km"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/tours/tours-within/{distance}/center/{latlng}/unit/{unit} [get]
func (h *TourHandler) ToursWithin(c *gin.Context) {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid distance: "+c.Param("distance")+"."))
		return
	}

	tours, err := h.tourService.ToursWithin(h.GetDB(c), distance, c.Param("latlng"), c.Param("unit"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, tours)
}

// Distances godoc
// @Summary Расстояние от точки до старта каждого тура
// @Tags tours
// @Produce json
// @Param latlng path string true "lat,lng"
// @Param unit path string true "mi или km"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/tours/distances/{latlng}/unit/{unit} [get]
func (h *TourHandler) Distances(c *gin.Context) {
	distances, err := h.tourService.Distances(h.GetDB(c), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, distances)
}

// GetTour godoc
// @Summary Тур с гидами и отзывами
// @Tags tours
// @Produce json
// @Param id path string true "ID тура"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/tours/{id} [get]
func (h *TourHandler) GetTour(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	tour, err := h.tourService.GetTour(h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, tour)
}

func (h *TourHandler) CreateTour(c *gin.Context) {
	var req dto.CreateTourRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	tour, err := h.tourService.CreateTour(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusCreated, tour)
}

// UpdateTour принимает JSON или multipart с imageCover и images (до 3)
func (h *TourHandler) UpdateTour(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTourRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	files, ok := h.tourImages(c)
	if !ok {
		return
	}

	tour, err := h.tourService.UpdateTour(c.Request.Context(), h.GetDB(c), id, &req, files)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOne(c, http.StatusOK, tour)
}

func (h *TourHandler) DeleteTour(c *gin.Context) {
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.tourService.DeleteTour(h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TourHandler) tourImages(c *gin.Context) (*dto.TourImageFiles, bool) {
	if c.ContentType() != "multipart/form-data" {
		return nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid multipart form."))
		return nil, false
	}

	files := &dto.TourImageFiles{Images: form.File["images"]}
	if covers := form.File["imageCover"]; len(covers) > 0 {
		files.Cover = covers[0]
	}
	return files, true
}
