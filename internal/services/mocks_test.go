package services

import (
	"context"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"natours_backend/internal/email"
	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// --- UserRepository ---

type MockUserRepository struct {
	mock.Mock
}

var _ repositories.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(db *gorm.DB, user *models.User) error {
	args := m.Called(db, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(db *gorm.DB, id string) (*models.User, error) {
	args := m.Called(db, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(db *gorm.DB, address string) (*models.User, error) {
	args := m.Called(db, address)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByResetToken(db *gorm.DB, hashedToken string, now time.Time) (*models.User, error) {
	args := m.Called(db, hashedToken, now)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByIDs(db *gorm.DB, ids []string) ([]models.User, error) {
	args := m.Called(db, ids)
	if u := args.Get(0); u != nil {
		return u.([]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) SetResetToken(db *gorm.DB, id string, hashedToken *string, expires *time.Time) error {
	args := m.Called(db, id, hashedToken, expires)
	return args.Error(0)
}

func (m *MockUserRepository) SetPassword(db *gorm.DB, id string, change repositories.PasswordChange) error {
	args := m.Called(db, id, change)
	return args.Error(0)
}

func (m *MockUserRepository) ConsumeResetToken(db *gorm.DB, id, hashedToken string, now time.Time, change repositories.PasswordChange) error {
	args := m.Called(db, id, hashedToken, now, change)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) (*models.User, error) {
	args := m.Called(db, id, fields)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Deactivate(db *gorm.DB, id string) error {
	args := m.Called(db, id)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(db *gorm.DB, id string) error {
	args := m.Called(db, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.User, error) {
	args := m.Called(db, spec, maxLimit)
	if u := args.Get(0); u != nil {
		return u.([]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error) {
	args := m.Called(db, now)
	return args.Get(0).(int64), args.Error(1)
}

// --- TourRepository ---

type MockTourRepository struct {
	mock.Mock
}

var _ repositories.TourRepository = (*MockTourRepository)(nil)

func (m *MockTourRepository) Create(db *gorm.DB, tour *models.Tour) error {
	args := m.Called(db, tour)
	return args.Error(0)
}

func (m *MockTourRepository) tour(args mock.Arguments) (*models.Tour, error) {
	if t := args.Get(0); t != nil {
		return t.(*models.Tour), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTourRepository) tours(args mock.Arguments) ([]models.Tour, error) {
	if t := args.Get(0); t != nil {
		return t.([]models.Tour), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTourRepository) FindByID(db *gorm.DB, id string) (*models.Tour, error) {
	return m.tour(m.Called(db, id))
}

func (m *MockTourRepository) FindDetailed(db *gorm.DB, id string) (*models.Tour, error) {
	return m.tour(m.Called(db, id))
}

func (m *MockTourRepository) FindBySlug(db *gorm.DB, slug string) (*models.Tour, error) {
	return m.tour(m.Called(db, slug))
}

func (m *MockTourRepository) FindByIDs(db *gorm.DB, ids []string) ([]models.Tour, error) {
	return m.tours(m.Called(db, ids))
}

func (m *MockTourRepository) Update(db *gorm.DB, tour *models.Tour) error {
	args := m.Called(db, tour)
	return args.Error(0)
}

func (m *MockTourRepository) ReplaceGuides(db *gorm.DB, tour *models.Tour, guides []models.User) error {
	args := m.Called(db, tour, guides)
	return args.Error(0)
}

func (m *MockTourRepository) Delete(db *gorm.DB, id string) error {
	args := m.Called(db, id)
	return args.Error(0)
}

func (m *MockTourRepository) List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.Tour, error) {
	return m.tours(m.Called(db, spec, maxLimit))
}

func (m *MockTourRepository) ListPublic(db *gorm.DB) ([]models.Tour, error) {
	return m.tours(m.Called(db))
}

func (m *MockTourRepository) Stats(db *gorm.DB) ([]repositories.TourStats, error) {
	args := m.Called(db)
	if s := args.Get(0); s != nil {
		return s.([]repositories.TourStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTourRepository) MonthlyPlan(db *gorm.DB, year int) ([]repositories.MonthlyPlan, error) {
	args := m.Called(db, year)
	if p := args.Get(0); p != nil {
		return p.([]repositories.MonthlyPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTourRepository) Within(db *gorm.DB, lat, lng, radiusRadians float64) ([]models.Tour, error) {
	return m.tours(m.Called(db, lat, lng, radiusRadians))
}

func (m *MockTourRepository) Distances(db *gorm.DB, lat, lng, multiplier float64) ([]repositories.TourDistance, error) {
	args := m.Called(db, lat, lng, multiplier)
	if d := args.Get(0); d != nil {
		return d.([]repositories.TourDistance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTourRepository) UpdateRatings(db *gorm.DB, tourID string) error {
	args := m.Called(db, tourID)
	return args.Error(0)
}

func (m *MockTourRepository) RecomputeAllRatings(db *gorm.DB) (int64, error) {
	args := m.Called(db)
	return args.Get(0).(int64), args.Error(1)
}

// --- ReviewRepository ---

type MockReviewRepository struct {
	mock.Mock
}

var _ repositories.ReviewRepository = (*MockReviewRepository)(nil)

func (m *MockReviewRepository) Create(db *gorm.DB, review *models.Review) error {
	args := m.Called(db, review)
	return args.Error(0)
}

func (m *MockReviewRepository) FindByID(db *gorm.DB, id string) (*models.Review, error) {
	args := m.Called(db, id)
	if r := args.Get(0); r != nil {
		return r.(*models.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReviewRepository) Update(db *gorm.DB, review *models.Review) error {
	args := m.Called(db, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(db *gorm.DB, id string) error {
	args := m.Called(db, id)
	return args.Error(0)
}

func (m *MockReviewRepository) List(db *gorm.DB, spec *query.Spec, maxLimit int, tourID string) ([]models.Review, error) {
	args := m.Called(db, spec, maxLimit, tourID)
	if r := args.Get(0); r != nil {
		return r.([]models.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- BookingRepository ---

type MockBookingRepository struct {
	mock.Mock
}

var _ repositories.BookingRepository = (*MockBookingRepository)(nil)

func (m *MockBookingRepository) Create(db *gorm.DB, booking *models.Booking) error {
	args := m.Called(db, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) CreateForSession(db *gorm.DB, booking *models.Booking) (bool, error) {
	args := m.Called(db, booking)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) FindByID(db *gorm.DB, id string) (*models.Booking, error) {
	args := m.Called(db, id)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingRepository) FindByUser(db *gorm.DB, userID string) ([]models.Booking, error) {
	args := m.Called(db, userID)
	if b := args.Get(0); b != nil {
		return b.([]models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingRepository) Update(db *gorm.DB, booking *models.Booking) error {
	args := m.Called(db, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) Delete(db *gorm.DB, id string) error {
	args := m.Called(db, id)
	return args.Error(0)
}

func (m *MockBookingRepository) List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.Booking, error) {
	args := m.Called(db, spec, maxLimit)
	if b := args.Get(0); b != nil {
		return b.([]models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- email.Sender ---

type MockSender struct {
	mock.Mock
}

var _ email.Sender = (*MockSender)(nil)

func (m *MockSender) SendWelcome(ctx context.Context, to email.Recipient, url string) error {
	args := m.Called(ctx, to, url)
	return args.Error(0)
}

func (m *MockSender) SendPasswordReset(ctx context.Context, to email.Recipient, url string) error {
	args := m.Called(ctx, to, url)
	return args.Error(0)
}

// --- payment.Gateway ---

type MockGateway struct {
	mock.Mock
}

var _ payment.Gateway = (*MockGateway)(nil)

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if s := args.Get(0); s != nil {
		return s.(*payment.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*payment.CompletedCheckout, error) {
	args := m.Called(payload, signature)
	if c := args.Get(0); c != nil {
		return c.(*payment.CompletedCheckout), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- UploadService ---

type MockUploadService struct {
	mock.Mock
}

var _ UploadService = (*MockUploadService)(nil)

func (m *MockUploadService) UploadUserPhoto(ctx context.Context, userID string, file *multipart.FileHeader) (string, error) {
	args := m.Called(ctx, userID, file)
	return args.String(0), args.Error(1)
}

func (m *MockUploadService) UploadTourImages(ctx context.Context, tourID string, files *dto.TourImageFiles) (*dto.TourImageNames, error) {
	args := m.Called(ctx, tourID, files)
	if n := args.Get(0); n != nil {
		return n.(*dto.TourImageNames), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- storage.Storage ---

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(ctx context.Context, path string, reader io.Reader, contentType string) error {
	args := m.Called(ctx, path, reader, contentType)
	return args.Error(0)
}

func (m *MockStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockStorage) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) GetURL(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

// newTxDB - gorm поверх sqlmock, чтобы db.Transaction открывал и закрывал транзакцию
func newTxDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db, sqlMock
}
