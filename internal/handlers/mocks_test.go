package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services"
	"natours_backend/internal/services/dto"
	"natours_backend/internal/validator"
	"natours_backend/internal/views"
	"natours_backend/pkg/apperrors"
	"natours_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	_ services.AuthService    = (*MockAuthService)(nil)
	_ services.UserService    = (*MockUserService)(nil)
	_ services.TourService    = (*MockTourService)(nil)
	_ services.ReviewService  = (*MockReviewService)(nil)
	_ services.BookingService = (*MockBookingService)(nil)
)

const (
	tourID   = "5c88fa8c-f4af-4e3b-9f1b-0a1c2d3e4f50"
	reviewID = "7d1e2f3a-4b5c-4d6e-8f90-a1b2c3d4e5f6"
	userID   = "0f9e8d7c-6b5a-4c3d-9e1f-2a3b4c5d6e7f"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Identity ---

// stubGuard - токен "<роль>-token" дает пользователя с этой ролью
type stubGuard struct{}

func (stubGuard) Verify(_ context.Context, _ *gorm.DB, token string) (*models.User, error) {
	roles := map[string]models.UserRole{
		"user-token":       models.UserRoleUser,
		"guide-token":      models.UserRoleGuide,
		"lead-guide-token": models.UserRoleLeadGuide,
		"admin-token":      models.UserRoleAdmin,
	}
	role, ok := roles[token]
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	return &models.User{
		BaseModel: models.BaseModel{ID: userID},
		Name:      "Jonas Schmedtmann",
		Email:     "jonas@example.io",
		Photo:     models.DefaultUserPhoto,
		Role:      role,
	}, nil
}

// --- Router ---

func newTestRouter(t *testing.T) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	r := gin.New()

	tmpl, err := views.Load()
	require.NoError(t, err)
	r.SetHTMLTemplate(tmpl)

	db := &gorm.DB{Config: &gorm.Config{}}
	r.Use(func(c *gin.Context) {
		c.Set(string(contextkeys.DBContextKey), db)
		c.Next()
	})
	return r, r.Group("/api/v1")
}

func newBase() *BaseHandler {
	return NewBaseHandler(validator.New())
}

func doJSON(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return errObj["message"].(string)
}

// --- Services ---

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Signup(ctx context.Context, db *gorm.DB, req *dto.SignupRequest) (*dto.Session, error) {
	args := m.Called(ctx, db, req)
	s, _ := args.Get(0).(*dto.Session)
	return s, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.Session, error) {
	args := m.Called(ctx, db, req)
	s, _ := args.Get(0).(*dto.Session)
	return s, args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, db *gorm.DB, token string) (*models.User, error) {
	args := m.Called(ctx, db, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, db *gorm.DB, email string) error {
	return m.Called(ctx, db, email).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, db *gorm.DB, token string, req *dto.ResetPasswordRequest) (*dto.Session, error) {
	args := m.Called(ctx, db, token, req)
	s, _ := args.Get(0).(*dto.Session)
	return s, args.Error(1)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, db *gorm.DB, id string, req *dto.UpdatePasswordRequest) (*dto.Session, error) {
	args := m.Called(ctx, db, id, req)
	s, _ := args.Get(0).(*dto.Session)
	return s, args.Error(1)
}

type MockUserService struct{ mock.Mock }

func (m *MockUserService) GetUser(db *gorm.DB, id string) (*models.User, error) {
	args := m.Called(db, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserService) ListUsers(db *gorm.DB, spec *query.Spec) ([]models.User, error) {
	args := m.Called(db, spec)
	u, _ := args.Get(0).([]models.User)
	return u, args.Error(1)
}

func (m *MockUserService) UpdateMe(ctx context.Context, db *gorm.DB, id string, req *dto.UpdateMeRequest, photo *multipart.FileHeader) (*models.User, error) {
	args := m.Called(ctx, db, id, req, photo)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserService) DeleteMe(ctx context.Context, db *gorm.DB, id string) error {
	return m.Called(ctx, db, id).Error(0)
}

func (m *MockUserService) UpdateUser(db *gorm.DB, id string, req *dto.AdminUpdateUserRequest) (*models.User, error) {
	args := m.Called(db, id, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserService) DeleteUser(db *gorm.DB, id string) error {
	return m.Called(db, id).Error(0)
}

type MockTourService struct{ mock.Mock }

func (m *MockTourService) ListTours(db *gorm.DB, spec *query.Spec) ([]models.Tour, error) {
	args := m.Called(db, spec)
	t, _ := args.Get(0).([]models.Tour)
	return t, args.Error(1)
}

func (m *MockTourService) GetTour(db *gorm.DB, id string) (*models.Tour, error) {
	args := m.Called(db, id)
	t, _ := args.Get(0).(*models.Tour)
	return t, args.Error(1)
}

func (m *MockTourService) GetTourBySlug(db *gorm.DB, slug string) (*models.Tour, error) {
	args := m.Called(db, slug)
	t, _ := args.Get(0).(*models.Tour)
	return t, args.Error(1)
}

func (m *MockTourService) CreateTour(db *gorm.DB, req *dto.CreateTourRequest) (*models.Tour, error) {
	args := m.Called(db, req)
	t, _ := args.Get(0).(*models.Tour)
	return t, args.Error(1)
}

func (m *MockTourService) UpdateTour(ctx context.Context, db *gorm.DB, id string, req *dto.UpdateTourRequest, files *dto.TourImageFiles) (*models.Tour, error) {
	args := m.Called(ctx, db, id, req, files)
	t, _ := args.Get(0).(*models.Tour)
	return t, args.Error(1)
}

func (m *MockTourService) DeleteTour(db *gorm.DB, id string) error {
	return m.Called(db, id).Error(0)
}

func (m *MockTourService) Stats(db *gorm.DB) ([]repositories.TourStats, error) {
	args := m.Called(db)
	s, _ := args.Get(0).([]repositories.TourStats)
	return s, args.Error(1)
}

func (m *MockTourService) MonthlyPlan(db *gorm.DB, year int) ([]repositories.MonthlyPlan, error) {
	args := m.Called(db, year)
	p, _ := args.Get(0).([]repositories.MonthlyPlan)
	return p, args.Error(1)
}

func (m *MockTourService) ToursWithin(db *gorm.DB, distance float64, latlng, unit string) ([]models.Tour, error) {
	args := m.Called(db, distance, latlng, unit)
	t, _ := args.Get(0).([]models.Tour)
	return t, args.Error(1)
}

func (m *MockTourService) Distances(db *gorm.DB, latlng, unit string) ([]repositories.TourDistance, error) {
	args := m.Called(db, latlng, unit)
	d, _ := args.Get(0).([]repositories.TourDistance)
	return d, args.Error(1)
}

func (m *MockTourService) Overview(db *gorm.DB) ([]models.Tour, error) {
	args := m.Called(db)
	t, _ := args.Get(0).([]models.Tour)
	return t, args.Error(1)
}

func (m *MockTourService) BookedTours(db *gorm.DB, id string) ([]models.Tour, error) {
	args := m.Called(db, id)
	t, _ := args.Get(0).([]models.Tour)
	return t, args.Error(1)
}

type MockReviewService struct{ mock.Mock }

func (m *MockReviewService) List(db *gorm.DB, spec *query.Spec, tourID string) ([]models.Review, error) {
	args := m.Called(db, spec, tourID)
	r, _ := args.Get(0).([]models.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) Get(db *gorm.DB, id string) (*models.Review, error) {
	args := m.Called(db, id)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) Create(db *gorm.DB, uid, tid string, req *dto.CreateReviewRequest) (*models.Review, error) {
	args := m.Called(db, uid, tid, req)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) Update(db *gorm.DB, actor services.Actor, id string, req *dto.UpdateReviewRequest) (*models.Review, error) {
	args := m.Called(db, actor, id, req)
	r, _ := args.Get(0).(*models.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) Delete(db *gorm.DB, actor services.Actor, id string) error {
	return m.Called(db, actor, id).Error(0)
}

type MockBookingService struct{ mock.Mock }

func (m *MockBookingService) CreateCheckoutSession(ctx context.Context, db *gorm.DB, user *models.User, tid string) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, db, user, tid)
	s, _ := args.Get(0).(*payment.CheckoutSession)
	return s, args.Error(1)
}

func (m *MockBookingService) HandleWebhook(ctx context.Context, db *gorm.DB, payload []byte, signature string) error {
	return m.Called(ctx, db, payload, signature).Error(0)
}

func (m *MockBookingService) MyBookings(db *gorm.DB, id string) ([]models.Booking, error) {
	args := m.Called(db, id)
	b, _ := args.Get(0).([]models.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) List(db *gorm.DB, spec *query.Spec) ([]models.Booking, error) {
	args := m.Called(db, spec)
	b, _ := args.Get(0).([]models.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) Get(db *gorm.DB, id string) (*models.Booking, error) {
	args := m.Called(db, id)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) Create(db *gorm.DB, req *dto.CreateBookingRequest) (*models.Booking, error) {
	args := m.Called(db, req)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) Update(db *gorm.DB, id string, req *dto.UpdateBookingRequest) (*models.Booking, error) {
	args := m.Called(db, id, req)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) Delete(db *gorm.DB, id string) error {
	return m.Called(db, id).Error(0)
}
