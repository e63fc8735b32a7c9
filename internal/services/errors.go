package services

import (
	"errors"

	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/pkg/apperrors"
)

// handleRepoError переводит сентинелы репозиториев в ошибки для клиента
func handleRepoError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}

	var fieldErr *query.FieldError
	if errors.As(err, &fieldErr) {
		return apperrors.NewBadRequestError(fieldErr.Error())
	}

	switch {
	case errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrTourNotFound),
		errors.Is(err, repositories.ErrReviewNotFound),
		errors.Is(err, repositories.ErrBookingNotFound):
		return apperrors.ErrNotFound(err)
	case errors.Is(err, repositories.ErrUserAlreadyExists):
		return apperrors.ErrEmailAlreadyExists
	case errors.Is(err, repositories.ErrReviewAlreadyExists):
		return apperrors.ErrDuplicateReview
	case errors.Is(err, repositories.ErrTourAlreadyExists):
		return apperrors.ErrConflict(err, "tour", "A tour with this name already exists.")
	case errors.Is(err, repositories.ErrDuplicate):
		return apperrors.ErrAlreadyExists(err)
	}
	return apperrors.InternalError(err)
}
