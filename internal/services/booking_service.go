package services

import (
	"context"
	"errors"
	"fmt"

	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type BookingService interface {
	// Оплата через Stripe Checkout
	CreateCheckoutSession(ctx context.Context, db *gorm.DB, user *models.User, tourID string) (*payment.CheckoutSession, error)
	HandleWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) error

	MyBookings(db *gorm.DB, userID string) ([]models.Booking, error)

	// Администрирование
	List(db *gorm.DB, spec *query.Spec) ([]models.Booking, error)
	Get(db *gorm.DB, id string) (*models.Booking, error)
	Create(db *gorm.DB, req *dto.CreateBookingRequest) (*models.Booking, error)
	Update(db *gorm.DB, id string, req *dto.UpdateBookingRequest) (*models.Booking, error)
	Delete(db *gorm.DB, id string) error
}

type BookingServiceImpl struct {
	bookingRepo repositories.BookingRepository
	tourRepo    repositories.TourRepository
	userRepo    repositories.UserRepository
	gateway     payment.Gateway
	baseURL     string
	maxLimit    int
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	tourRepo repositories.TourRepository,
	userRepo repositories.UserRepository,
	gateway payment.Gateway,
	baseURL string,
	maxLimit int,
) BookingService {
	return &BookingServiceImpl{
		bookingRepo: bookingRepo,
		tourRepo:    tourRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		baseURL:     baseURL,
		maxLimit:    maxLimit,
	}
}

func (s *BookingServiceImpl) CreateCheckoutSession(ctx context.Context, db *gorm.DB, user *models.User, tourID string) (*payment.CheckoutSession, error) {
	tour, err := s.tourRepo.FindByID(db, tourID)
	if err != nil {
		return nil, handleRepoError(err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		TourID:        tour.ID,
		TourName:      tour.Name,
		Summary:       tour.Summary,
		ImageURL:      fmt.Sprintf("%s/%s/%s", s.baseURL, TourImageDir, tour.ImageCover),
		Price:         tour.Price,
		CustomerEmail: user.Email,
		SuccessURL:    s.baseURL + "/my-tours?alert=booking",
		CancelURL:     s.baseURL + "/tour/" + tour.Slug,
	})
	if err != nil {
		logger.CtxWithError(ctx, "failed to create checkout session", err, "tour_id", tour.ID)
		return nil, apperrors.ErrPaymentFailed(err)
	}
	return session, nil
}

// HandleWebhook создает бронирование по оплаченной сессии. Повторная доставка события
// ничего не меняет.
func (s *BookingServiceImpl) HandleWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) error {
	completed, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrIgnoredEvent) {
			return nil
		}
		if errors.Is(err, payment.ErrInvalidSignature) {
			return apperrors.NewBadRequestError("Webhook error: " + err.Error())
		}
		return apperrors.InternalError(err)
	}

	user, err := s.userRepo.FindByEmail(db, completed.CustomerEmail)
	if err != nil {
		return handleRepoError(err)
	}

	sessionID := completed.SessionID
	ctx = logger.WithCorrelationID(ctx, sessionID)
	created, err := s.bookingRepo.CreateForSession(db, &models.Booking{
		TourID:          completed.TourID,
		UserID:          user.ID,
		Price:           completed.Amount,
		Paid:            true,
		StripeSessionID: &sessionID,
	})
	if err != nil {
		return handleRepoError(err)
	}

	if created {
		logger.CtxInfo(ctx, "booking created from checkout", "tour_id", completed.TourID)
	} else {
		logger.CtxDebug(ctx, "checkout session already booked")
	}
	return nil
}

func (s *BookingServiceImpl) MyBookings(db *gorm.DB, userID string) ([]models.Booking, error) {
	bookings, err := s.bookingRepo.FindByUser(db, userID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return bookings, nil
}

func (s *BookingServiceImpl) List(db *gorm.DB, spec *query.Spec) ([]models.Booking, error) {
	bookings, err := s.bookingRepo.List(db, spec, s.maxLimit)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return bookings, nil
}

func (s *BookingServiceImpl) Get(db *gorm.DB, id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(db, id)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return booking, nil
}

func (s *BookingServiceImpl) Create(db *gorm.DB, req *dto.CreateBookingRequest) (*models.Booking, error) {
	if _, err := s.tourRepo.FindByID(db, req.Tour); err != nil {
		return nil, handleRepoError(err)
	}
	if _, err := s.userRepo.FindByID(db, req.User); err != nil {
		return nil, handleRepoError(err)
	}

	booking := &models.Booking{
		TourID: req.Tour,
		UserID: req.User,
		Price:  req.Price,
		Paid:   true,
	}
	if req.Paid != nil {
		booking.Paid = *req.Paid
	}

	if err := s.bookingRepo.Create(db, booking); err != nil {
		return nil, handleRepoError(err)
	}
	return booking, nil
}

func (s *BookingServiceImpl) Update(db *gorm.DB, id string, req *dto.UpdateBookingRequest) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(db, id)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if req.Price != nil {
		booking.Price = *req.Price
	}
	if req.Paid != nil {
		booking.Paid = *req.Paid
	}

	if err := s.bookingRepo.Update(db, booking); err != nil {
		return nil, handleRepoError(err)
	}
	return booking, nil
}

func (s *BookingServiceImpl) Delete(db *gorm.DB, id string) error {
	return handleRepoError(s.bookingRepo.Delete(db, id))
}
