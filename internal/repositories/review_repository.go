package repositories

import (
	"errors"

	"natours_backend/internal/models"
	"natours_backend/internal/query"

	"gorm.io/gorm"
)

var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("review already exists for this tour")
)

type ReviewRepository interface {
	Create(db *gorm.DB, review *models.Review) error
	FindByID(db *gorm.DB, id string) (*models.Review, error)
	Update(db *gorm.DB, review *models.Review) error
	Delete(db *gorm.DB, id string) error
	List(db *gorm.DB, spec *query.Spec, maxLimit int, tourID string) ([]models.Review, error)
}

type ReviewRepositoryImpl struct{}

func NewReviewRepository() ReviewRepository {
	return &ReviewRepositoryImpl{}
}

// withAuthor подгружает имя и фото автора отзыва
func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "photo")
}

func (r *ReviewRepositoryImpl) Create(db *gorm.DB, review *models.Review) error {
	err := db.Omit("User", "Tour").Create(review).Error
	if IsUniqueViolation(err) {
		return ErrReviewAlreadyExists
	}
	return err
}

func (r *ReviewRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Review, error) {
	var review models.Review
	err := db.Preload("User", withAuthor).First(&review, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, ErrReviewNotFound)
	}
	return &review, nil
}

func (r *ReviewRepositoryImpl) Update(db *gorm.DB, review *models.Review) error {
	result := db.Model(review).Select("review", "rating").Updates(review)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Review{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// List - отзывы через конвейер запросов. Непустой tourID ограничивает выборку одним туром.
func (r *ReviewRepositoryImpl) List(db *gorm.DB, spec *query.Spec, maxLimit int, tourID string) ([]models.Review, error) {
	opts := []query.Option{
		query.WithMaxLimit(maxLimit),
		query.WithPreload("User", withAuthor),
	}
	if tourID != "" {
		opts = append(opts, query.WithScope(func(tx *gorm.DB) *gorm.DB {
			return tx.Where("tour_id = ?", tourID)
		}))
	}

	var reviews []models.Review
	err := query.New(db, &models.Review{}, spec, opts...).All().Find(&reviews)
	return reviews, err
}
