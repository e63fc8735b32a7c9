package services

import (
	"testing"

	"natours_backend/internal/models"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReviewService(reviews *MockReviewRepository, tours *MockTourRepository) ReviewService {
	return NewReviewService(reviews, tours, 100)
}

func TestReviewService_CreateRecomputesRatings(t *testing.T) {
	db, sqlMock := newTxDB(t)
	reviews := new(MockReviewRepository)
	tours := new(MockTourRepository)

	tours.On("FindByID", mock.Anything, "tour-1").Return(&models.Tour{}, nil)
	reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Review) bool {
		return r.TourID == "tour-1" && r.UserID == "user-1" && r.Review == "Great tour!" && r.Rating == 5
	})).Return(nil)
	tours.On("UpdateRatings", mock.Anything, "tour-1").Return(nil)

	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()

	review, err := newReviewService(reviews, tours).Create(db, "user-1", "tour-1", &dto.CreateReviewRequest{
		Review: "<b>Great tour!</b><script>alert(1)</script>",
		Rating: 5,
		Tour:   "ignored-when-path-has-tour",
	})

	require.NoError(t, err)
	assert.Equal(t, "Great tour!", review.Review)
	reviews.AssertExpectations(t)
	tours.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestReviewService_CreateTourFromBody(t *testing.T) {
	db, sqlMock := newTxDB(t)
	reviews := new(MockReviewRepository)
	tours := new(MockTourRepository)

	tours.On("FindByID", mock.Anything, "tour-2").Return(&models.Tour{}, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	tours.On("UpdateRatings", mock.Anything, "tour-2").Return(nil)
	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()

	review, err := newReviewService(reviews, tours).Create(db, "user-1", "", &dto.CreateReviewRequest{
		Review: "Nice", Rating: 4, Tour: "tour-2",
	})

	require.NoError(t, err)
	assert.Equal(t, "tour-2", review.TourID)
}

func TestReviewService_CreateDuplicateRollsBack(t *testing.T) {
	db, sqlMock := newTxDB(t)
	reviews := new(MockReviewRepository)
	tours := new(MockTourRepository)

	tours.On("FindByID", mock.Anything, "tour-1").Return(&models.Tour{}, nil)
	reviews.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrReviewAlreadyExists)
	sqlMock.ExpectBegin()
	sqlMock.ExpectRollback()

	_, err := newReviewService(reviews, tours).Create(db, "user-1", "tour-1", &dto.CreateReviewRequest{Review: "Again", Rating: 3})

	assert.Equal(t, apperrors.ErrDuplicateReview, err)
	tours.AssertNotCalled(t, "UpdateRatings", mock.Anything, mock.Anything)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestReviewService_CreateValidation(t *testing.T) {
	tours := new(MockTourRepository)
	s := newReviewService(new(MockReviewRepository), tours)

	t.Run("no tour", func(t *testing.T) {
		_, err := s.Create(nil, "user-1", "", &dto.CreateReviewRequest{Review: "x", Rating: 3})
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.HTTPCode)
	})

	t.Run("unknown tour", func(t *testing.T) {
		tours.On("FindByID", mock.Anything, "missing").Return(nil, repositories.ErrTourNotFound)
		_, err := s.Create(nil, "user-1", "missing", &dto.CreateReviewRequest{Review: "x", Rating: 3})
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 404, appErr.HTTPCode)
	})

	t.Run("markup only", func(t *testing.T) {
		tours.On("FindByID", mock.Anything, "tour-1").Return(&models.Tour{}, nil)
		_, err := s.Create(nil, "user-1", "tour-1", &dto.CreateReviewRequest{Review: "<script>x</script>", Rating: 3})
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.HTTPCode)
	})
}

func TestReviewService_Ownership(t *testing.T) {
	existing := func() *models.Review {
		return &models.Review{BaseModel: models.BaseModel{ID: "rev-1"}, TourID: "tour-1", UserID: "owner", Review: "ok", Rating: 3}
	}
	rating := 1

	t.Run("stranger cannot update", func(t *testing.T) {
		reviews := new(MockReviewRepository)
		reviews.On("FindByID", mock.Anything, "rev-1").Return(existing(), nil)

		_, err := newReviewService(reviews, new(MockTourRepository)).
			Update(nil, Actor{ID: "stranger", Role: models.UserRoleUser}, "rev-1", &dto.UpdateReviewRequest{Rating: &rating})

		assert.Equal(t, apperrors.ErrInsufficientPermissions, err)
		reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("owner updates and ratings follow", func(t *testing.T) {
		db, sqlMock := newTxDB(t)
		reviews := new(MockReviewRepository)
		tours := new(MockTourRepository)
		reviews.On("FindByID", mock.Anything, "rev-1").Return(existing(), nil)
		reviews.On("Update", mock.Anything, mock.MatchedBy(func(r *models.Review) bool { return r.Rating == 1 })).Return(nil)
		tours.On("UpdateRatings", mock.Anything, "tour-1").Return(nil)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		review, err := newReviewService(reviews, tours).
			Update(db, Actor{ID: "owner", Role: models.UserRoleUser}, "rev-1", &dto.UpdateReviewRequest{Rating: &rating})

		require.NoError(t, err)
		assert.Equal(t, 1, review.Rating)
		tours.AssertExpectations(t)
	})

	t.Run("admin deletes any review", func(t *testing.T) {
		db, sqlMock := newTxDB(t)
		reviews := new(MockReviewRepository)
		tours := new(MockTourRepository)
		reviews.On("FindByID", mock.Anything, "rev-1").Return(existing(), nil)
		reviews.On("Delete", mock.Anything, "rev-1").Return(nil)
		tours.On("UpdateRatings", mock.Anything, "tour-1").Return(nil)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		err := newReviewService(reviews, tours).Delete(db, Actor{ID: "boss", Role: models.UserRoleAdmin}, "rev-1")

		require.NoError(t, err)
		reviews.AssertExpectations(t)
		tours.AssertExpectations(t)
	})
}
