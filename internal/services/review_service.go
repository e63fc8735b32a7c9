package services

import (
	"html"
	"strings"

	"natours_backend/internal/auth"
	"natours_backend/internal/models"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// Actor - кто выполняет операцию
type Actor struct {
	ID   string
	Role models.UserRole
}

type ReviewService interface {
	// List - отзывы; непустой tourID ограничивает выборку одним туром
	List(db *gorm.DB, spec *query.Spec, tourID string) ([]models.Review, error)
	Get(db *gorm.DB, id string) (*models.Review, error)
	Create(db *gorm.DB, userID, tourID string, req *dto.CreateReviewRequest) (*models.Review, error)
	Update(db *gorm.DB, actor Actor, id string, req *dto.UpdateReviewRequest) (*models.Review, error)
	Delete(db *gorm.DB, actor Actor, id string) error
}

type ReviewServiceImpl struct {
	reviewRepo repositories.ReviewRepository
	tourRepo   repositories.TourRepository
	policy     *bluemonday.Policy
	maxLimit   int
}

func NewReviewService(reviewRepo repositories.ReviewRepository, tourRepo repositories.TourRepository, maxLimit int) ReviewService {
	return &ReviewServiceImpl{
		reviewRepo: reviewRepo,
		tourRepo:   tourRepo,
		policy:     bluemonday.StrictPolicy(),
		maxLimit:   maxLimit,
	}
}

func (s *ReviewServiceImpl) List(db *gorm.DB, spec *query.Spec, tourID string) ([]models.Review, error) {
	reviews, err := s.reviewRepo.List(db, spec, s.maxLimit, tourID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return reviews, nil
}

func (s *ReviewServiceImpl) Get(db *gorm.DB, id string) (*models.Review, error) {
	review, err := s.reviewRepo.FindByID(db, id)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return review, nil
}

// Create - tourID из пути имеет приоритет над полем tour в теле
func (s *ReviewServiceImpl) Create(db *gorm.DB, userID, tourID string, req *dto.CreateReviewRequest) (*models.Review, error) {
	if tourID == "" {
		tourID = req.Tour
	}
	if tourID == "" {
		return nil, apperrors.ValidationError(map[string]string{"tour": "Review must belong to a tour."})
	}

	if _, err := s.tourRepo.FindByID(db, tourID); err != nil {
		return nil, handleRepoError(err)
	}

	text, err := s.sanitize(req.Review)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		Review: text,
		Rating: req.Rating,
		TourID: tourID,
		UserID: userID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.reviewRepo.Create(tx, review); err != nil {
			return err
		}
		return s.tourRepo.UpdateRatings(tx, tourID)
	})
	if err != nil {
		return nil, handleRepoError(err)
	}
	return review, nil
}

func (s *ReviewServiceImpl) Update(db *gorm.DB, actor Actor, id string, req *dto.UpdateReviewRequest) (*models.Review, error) {
	review, err := s.owned(db, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Review != nil {
		text, err := s.sanitize(*req.Review)
		if err != nil {
			return nil, err
		}
		review.Review = text
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.reviewRepo.Update(tx, review); err != nil {
			return err
		}
		return s.tourRepo.UpdateRatings(tx, review.TourID)
	})
	if err != nil {
		return nil, handleRepoError(err)
	}
	return review, nil
}

func (s *ReviewServiceImpl) Delete(db *gorm.DB, actor Actor, id string) error {
	review, err := s.owned(db, actor, id)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.reviewRepo.Delete(tx, review.ID); err != nil {
			return err
		}
		return s.tourRepo.UpdateRatings(tx, review.TourID)
	})
	return handleRepoError(err)
}

// owned загружает отзыв и проверяет, что менять его может только автор или администратор
func (s *ReviewServiceImpl) owned(db *gorm.DB, actor Actor, id string) (*models.Review, error) {
	review, err := s.reviewRepo.FindByID(db, id)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if review.UserID != actor.ID && !auth.IsAdmin(actor.Role) {
		return nil, apperrors.ErrInsufficientPermissions
	}
	return review, nil
}

func (s *ReviewServiceImpl) sanitize(text string) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
	if clean == "" {
		return "", apperrors.ValidationError(map[string]string{"review": "Review can not be empty!"})
	}
	return clean, nil
}
