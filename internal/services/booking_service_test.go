package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/repositories"
	"natours_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bookingMocks struct {
	bookings *MockBookingRepository
	tours    *MockTourRepository
	users    *MockUserRepository
	gateway  *MockGateway
}

func newBookingService() (BookingService, *bookingMocks) {
	m := &bookingMocks{
		bookings: new(MockBookingRepository),
		tours:    new(MockTourRepository),
		users:    new(MockUserRepository),
		gateway:  new(MockGateway),
	}
	return NewBookingService(m.bookings, m.tours, m.users, m.gateway, "http://localhost:3000", 100), m
}

func TestBookingService_CreateCheckoutSession(t *testing.T) {
	s, m := newBookingService()

	m.tours.On("FindByID", mock.Anything, "tour-1").Return(&models.Tour{
		BaseModel:  models.BaseModel{ID: "tour-1"},
		Name:       "The Forest Hiker",
		Slug:       "the-forest-hiker",
		Summary:    "Breathtaking hike",
		ImageCover: "tour-1-cover.jpg",
		Price:      397,
	}, nil)
	m.gateway.On("CreateCheckoutSession", mock.Anything, payment.CheckoutRequest{
		TourID:        "tour-1",
		TourName:      "The Forest Hiker",
		Summary:       "Breathtaking hike",
		ImageURL:      "http://localhost:3000/img/tours/tour-1-cover.jpg",
		Price:         397,
		CustomerEmail: "jonas@example.com",
		SuccessURL:    "http://localhost:3000/my-tours?alert=booking",
		CancelURL:     "http://localhost:3000/tour/the-forest-hiker",
	}).Return(&payment.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil)

	session, err := s.CreateCheckoutSession(context.Background(), nil, &models.User{Email: "jonas@example.com"}, "tour-1")

	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	m.gateway.AssertExpectations(t)
}

func TestBookingService_CreateCheckoutSessionGatewayDown(t *testing.T) {
	s, m := newBookingService()
	m.tours.On("FindByID", mock.Anything, "tour-1").Return(&models.Tour{Price: 10}, nil)
	m.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := s.CreateCheckoutSession(context.Background(), nil, &models.User{}, "tour-1")

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 502, appErr.HTTPCode)
}

func TestBookingService_HandleWebhook(t *testing.T) {
	payload := []byte(`{}`)

	t.Run("completed checkout creates booking", func(t *testing.T) {
		s, m := newBookingService()
		m.gateway.On("ParseWebhook", payload, "sig").Return(&payment.CompletedCheckout{
			SessionID: "cs_1", TourID: "tour-1", CustomerEmail: "jonas@example.com", Amount: 397,
		}, nil)
		m.users.On("FindByEmail", mock.Anything, "jonas@example.com").
			Return(&models.User{BaseModel: models.BaseModel{ID: "u-1"}}, nil)
		m.bookings.On("CreateForSession", mock.Anything, mock.MatchedBy(func(b *models.Booking) bool {
			return b.TourID == "tour-1" && b.UserID == "u-1" && b.Price == 397 && b.Paid &&
				b.StripeSessionID != nil && *b.StripeSessionID == "cs_1"
		})).Return(true, nil)

		require.NoError(t, s.HandleWebhook(context.Background(), nil, payload, "sig"))
		m.bookings.AssertExpectations(t)
	})

	t.Run("redelivery is accepted", func(t *testing.T) {
		s, m := newBookingService()
		m.gateway.On("ParseWebhook", payload, "sig").Return(&payment.CompletedCheckout{SessionID: "cs_1", CustomerEmail: "a@b.io"}, nil)
		m.users.On("FindByEmail", mock.Anything, "a@b.io").Return(&models.User{}, nil)
		m.bookings.On("CreateForSession", mock.Anything, mock.Anything).Return(false, nil)

		assert.NoError(t, s.HandleWebhook(context.Background(), nil, payload, "sig"))
	})

	t.Run("bad signature", func(t *testing.T) {
		s, m := newBookingService()
		m.gateway.On("ParseWebhook", payload, "forged").
			Return(nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, "no signatures found"))

		err := s.HandleWebhook(context.Background(), nil, payload, "forged")

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.HTTPCode)
		assert.Contains(t, appErr.Message, "Webhook error: ")
		m.bookings.AssertNotCalled(t, "CreateForSession", mock.Anything, mock.Anything)
	})

	t.Run("other events ignored", func(t *testing.T) {
		s, m := newBookingService()
		m.gateway.On("ParseWebhook", payload, "sig").Return(nil, payment.ErrIgnoredEvent)

		assert.NoError(t, s.HandleWebhook(context.Background(), nil, payload, "sig"))
	})

	t.Run("unknown customer", func(t *testing.T) {
		s, m := newBookingService()
		m.gateway.On("ParseWebhook", payload, "sig").Return(&payment.CompletedCheckout{CustomerEmail: "ghost@b.io"}, nil)
		m.users.On("FindByEmail", mock.Anything, "ghost@b.io").Return(nil, repositories.ErrUserNotFound)

		err := s.HandleWebhook(context.Background(), nil, payload, "sig")
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 404, appErr.HTTPCode)
	})
}
