package repositories

import (
	"errors"

	"natours_backend/internal/models"
	"natours_backend/internal/query"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepository interface {
	Create(db *gorm.DB, booking *models.Booking) error
	CreateForSession(db *gorm.DB, booking *models.Booking) (bool, error)
	FindByID(db *gorm.DB, id string) (*models.Booking, error)
	FindByUser(db *gorm.DB, userID string) ([]models.Booking, error)
	Update(db *gorm.DB, booking *models.Booking) error
	Delete(db *gorm.DB, id string) error
	List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.Booking, error)
}

type BookingRepositoryImpl struct{}

func NewBookingRepository() BookingRepository {
	return &BookingRepositoryImpl{}
}

// bookingRelations - тур (название) и пользователь (имя, email)
func bookingRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Tour", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "slug", "image_cover", "price")
	}).Preload("User", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "email")
	})
}

func (r *BookingRepositoryImpl) Create(db *gorm.DB, booking *models.Booking) error {
	return db.Omit("Tour", "User").Create(booking).Error
}

// CreateForSession создает бронирование для оплаченной сессии Stripe.
// Повторная доставка того же события ничего не создает и возвращает false.
func (r *BookingRepositoryImpl) CreateForSession(db *gorm.DB, booking *models.Booking) (bool, error) {
	result := db.Omit("Tour", "User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_session_id"}},
			DoNothing: true,
		}).
		Create(booking)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *BookingRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Booking, error) {
	var booking models.Booking
	err := db.Scopes(bookingRelations).First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, ErrBookingNotFound)
	}
	return &booking, nil
}

func (r *BookingRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := db.Scopes(bookingRelations).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepositoryImpl) Update(db *gorm.DB, booking *models.Booking) error {
	result := db.Model(booking).Select("tour_id", "user_id", "price", "paid").Updates(booking)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Booking{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepositoryImpl) List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := query.New(db, &models.Booking{}, spec,
		query.WithMaxLimit(maxLimit),
		query.WithPreload("Tour", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "slug") }),
		query.WithPreload("User", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "email") }),
	).All().Find(&bookings)
	return bookings, err
}
