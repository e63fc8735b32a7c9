package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"natours_backend/internal/auth"
	"natours_backend/internal/models"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/internal/validator"
	"natours_backend/pkg/apperrors"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Множители для перевода метров в мили и километры
const (
	MetersToMiles = 0.000621371
	MetersToKm    = 0.001
)

type TourService interface {
	ListTours(db *gorm.DB, spec *query.Spec) ([]models.Tour, error)
	GetTour(db *gorm.DB, id string) (*models.Tour, error)
	GetTourBySlug(db *gorm.DB, slug string) (*models.Tour, error)
	CreateTour(db *gorm.DB, req *dto.CreateTourRequest) (*models.Tour, error)
	UpdateTour(ctx context.Context, db *gorm.DB, id string, req *dto.UpdateTourRequest, files *dto.TourImageFiles) (*models.Tour, error)
	DeleteTour(db *gorm.DB, id string) error

	// Агрегаты и гео-запросы
	Stats(db *gorm.DB) ([]repositories.TourStats, error)
	MonthlyPlan(db *gorm.DB, year int) ([]repositories.MonthlyPlan, error)
	ToursWithin(db *gorm.DB, distance float64, latlng, unit string) ([]models.Tour, error)
	Distances(db *gorm.DB, latlng, unit string) ([]repositories.TourDistance, error)

	// Страницы сайта
	Overview(db *gorm.DB) ([]models.Tour, error)
	BookedTours(db *gorm.DB, userID string) ([]models.Tour, error)
}

type TourServiceImpl struct {
	tourRepo    repositories.TourRepository
	userRepo    repositories.UserRepository
	bookingRepo repositories.BookingRepository
	uploads     UploadService
	maxLimit    int
}

func NewTourService(
	tourRepo repositories.TourRepository,
	userRepo repositories.UserRepository,
	bookingRepo repositories.BookingRepository,
	uploads UploadService,
	maxLimit int,
) TourService {
	return &TourServiceImpl{
		tourRepo:    tourRepo,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		uploads:     uploads,
		maxLimit:    maxLimit,
	}
}

func (s *TourServiceImpl) ListTours(db *gorm.DB, spec *query.Spec) ([]models.Tour, error) {
	tours, err := s.tourRepo.List(db, spec, s.maxLimit)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return tours, nil
}

func (s *TourServiceImpl) GetTour(db *gorm.DB, id string) (*models.Tour, error) {
	tour, err := s.tourRepo.FindDetailed(db, id)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return tour, nil
}

func (s *TourServiceImpl) GetTourBySlug(db *gorm.DB, slug string) (*models.Tour, error) {
	tour, err := s.tourRepo.FindBySlug(db, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrTourNotFound) {
			return nil, apperrors.ErrTourNameNotFound
		}
		return nil, handleRepoError(err)
	}
	return tour, nil
}

func (s *TourServiceImpl) CreateTour(db *gorm.DB, req *dto.CreateTourRequest) (*models.Tour, error) {
	tour := &models.Tour{
		Name:            strings.TrimSpace(req.Name),
		Duration:        req.Duration,
		MaxGroupSize:    req.MaxGroupSize,
		Difficulty:      models.Difficulty(req.Difficulty),
		RatingsAverage:  models.RoundRating(req.RatingsAverage),
		RatingsQuantity: req.RatingsQuantity,
		Price:           req.Price,
		Summary:         strings.TrimSpace(req.Summary),
		Description:     strings.TrimSpace(req.Description),
		ImageCover:      req.ImageCover,
		Images:          pq.StringArray(req.Images),
		StartDates:      datatypes.NewJSONSlice(req.StartDates),
		SecretTour:      req.SecretTour,
		Locations:       toLocations(req.Locations),
	}
	if req.PriceDiscount > 0 {
		discount := req.PriceDiscount
		tour.PriceDiscount = &discount
	}
	if req.StartLocation != nil {
		tour.StartLocation = req.StartLocation.ToGeoPoint()
	}

	if len(req.Guides) > 0 {
		guides, err := s.loadGuides(db, req.Guides)
		if err != nil {
			return nil, err
		}
		tour.Guides = guides
	}

	if err := s.tourRepo.Create(db, tour); err != nil {
		return nil, handleRepoError(err)
	}
	return tour, nil
}

func (s *TourServiceImpl) UpdateTour(ctx context.Context, db *gorm.DB, id string, req *dto.UpdateTourRequest, files *dto.TourImageFiles) (*models.Tour, error) {
	tour, err := s.tourRepo.FindByID(db, id)
	if err != nil {
		return nil, handleRepoError(err)
	}

	applyTourUpdate(tour, req)

	if tour.PriceDiscount != nil && *tour.PriceDiscount >= tour.Price {
		return nil, apperrors.ValidationError(map[string]string{
			"priceDiscount": fmt.Sprintf("Discount price (%v) should be below regular price", *tour.PriceDiscount),
		})
	}

	var guides []models.User
	if req.Guides != nil {
		if guides, err = s.loadGuides(db, req.Guides); err != nil {
			return nil, err
		}
	}

	if !files.Empty() {
		names, err := s.uploads.UploadTourImages(ctx, tour.ID, files)
		if err != nil {
			return nil, err
		}
		if names.Cover != "" {
			tour.ImageCover = names.Cover
		}
		if len(names.Images) > 0 {
			tour.Images = pq.StringArray(names.Images)
		}
	}

	if err := s.tourRepo.Update(db, tour); err != nil {
		return nil, handleRepoError(err)
	}

	if req.Guides != nil {
		if err := s.tourRepo.ReplaceGuides(db, tour, guides); err != nil {
			return nil, handleRepoError(err)
		}
		tour.Guides = guides
	}
	return tour, nil
}

func (s *TourServiceImpl) DeleteTour(db *gorm.DB, id string) error {
	return handleRepoError(s.tourRepo.Delete(db, id))
}

func (s *TourServiceImpl) Stats(db *gorm.DB) ([]repositories.TourStats, error) {
	stats, err := s.tourRepo.Stats(db)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return stats, nil
}

func (s *TourServiceImpl) MonthlyPlan(db *gorm.DB, year int) ([]repositories.MonthlyPlan, error) {
	if year < 1970 || year > 9999 {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("Invalid year: %d.", year))
	}
	plan, err := s.tourRepo.MonthlyPlan(db, year)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return plan, nil
}

// ToursWithin - туры, чья точка старта лежит в радиусе distance от центра
func (s *TourServiceImpl) ToursWithin(db *gorm.DB, distance float64, latlng, unit string) ([]models.Tour, error) {
	lat, lng, ok := validator.ParseLatLng(latlng)
	if !ok {
		return nil, apperrors.ErrInvalidLatLng
	}
	if distance <= 0 {
		return nil, apperrors.NewBadRequestError("Distance must be a positive number.")
	}

	tours, err := s.tourRepo.Within(db, lat, lng, RadiusRadians(distance, unit))
	if err != nil {
		return nil, handleRepoError(err)
	}
	return tours, nil
}

func (s *TourServiceImpl) Distances(db *gorm.DB, latlng, unit string) ([]repositories.TourDistance, error) {
	lat, lng, ok := validator.ParseLatLng(latlng)
	if !ok {
		return nil, apperrors.ErrInvalidLatLng
	}

	distances, err := s.tourRepo.Distances(db, lat, lng, DistanceMultiplier(unit))
	if err != nil {
		return nil, handleRepoError(err)
	}
	return distances, nil
}

func (s *TourServiceImpl) Overview(db *gorm.DB) ([]models.Tour, error) {
	tours, err := s.tourRepo.ListPublic(db)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return tours, nil
}

// BookedTours - туры из бронирований пользователя
func (s *TourServiceImpl) BookedTours(db *gorm.DB, userID string) ([]models.Tour, error) {
	bookings, err := s.bookingRepo.FindByUser(db, userID)
	if err != nil {
		return nil, handleRepoError(err)
	}

	ids := make([]string, 0, len(bookings))
	seen := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if !seen[b.TourID] {
			seen[b.TourID] = true
			ids = append(ids, b.TourID)
		}
	}

	tours, err := s.tourRepo.FindByIDs(db, ids)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return tours, nil
}

// RadiusRadians переводит расстояние в угловой радиус: mi делится на радиус Земли в милях,
// все остальное считается километрами
func RadiusRadians(distance float64, unit string) float64 {
	if unit == "mi" {
		return distance / repositories.EarthRadiusMiles
	}
	return distance / repositories.EarthRadiusKm
}

func DistanceMultiplier(unit string) float64 {
	if unit == "mi" {
		return MetersToMiles
	}
	return MetersToKm
}

func (s *TourServiceImpl) loadGuides(db *gorm.DB, ids []string) ([]models.User, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	guides, err := s.userRepo.FindByIDs(db, unique)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if len(guides) != len(unique) {
		return nil, apperrors.ValidationError(map[string]string{"guides": "Some guides do not exist"})
	}
	for _, g := range guides {
		if !auth.HasRole(g.Role, models.UserRoleGuide, models.UserRoleLeadGuide) {
			return nil, apperrors.ValidationError(map[string]string{"guides": fmt.Sprintf("User %s is not a guide", g.ID)})
		}
	}
	return guides, nil
}

func applyTourUpdate(tour *models.Tour, req *dto.UpdateTourRequest) {
	if req.Name != nil {
		tour.Name = strings.TrimSpace(*req.Name)
	}
	if req.Duration != nil {
		tour.Duration = *req.Duration
	}
	if req.MaxGroupSize != nil {
		tour.MaxGroupSize = *req.MaxGroupSize
	}
	if req.Difficulty != nil {
		tour.Difficulty = models.Difficulty(*req.Difficulty)
	}
	if req.RatingsAverage != nil {
		tour.RatingsAverage = *req.RatingsAverage
	}
	if req.Price != nil {
		tour.Price = *req.Price
	}
	if req.PriceDiscount != nil {
		if *req.PriceDiscount == 0 {
			tour.PriceDiscount = nil
		} else {
			discount := *req.PriceDiscount
			tour.PriceDiscount = &discount
		}
	}
	if req.Summary != nil {
		tour.Summary = strings.TrimSpace(*req.Summary)
	}
	if req.Description != nil {
		tour.Description = strings.TrimSpace(*req.Description)
	}
	if req.ImageCover != nil {
		tour.ImageCover = *req.ImageCover
	}
	if req.Images != nil {
		tour.Images = pq.StringArray(req.Images)
	}
	if req.StartDates != nil {
		tour.StartDates = datatypes.NewJSONSlice(req.StartDates)
	}
	if req.SecretTour != nil {
		tour.SecretTour = *req.SecretTour
	}
	if req.StartLocation != nil {
		tour.StartLocation = req.StartLocation.ToGeoPoint()
	}
	if req.Locations != nil {
		tour.Locations = toLocations(req.Locations)
	}
}

func toLocations(in []dto.LocationRequest) datatypes.JSONSlice[models.Location] {
	out := make([]models.Location, 0, len(in))
	for _, l := range in {
		out = append(out, models.Location{GeoPoint: l.ToGeoPoint(), Day: l.Day})
	}
	return datatypes.NewJSONSlice(out)
}
