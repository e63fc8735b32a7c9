package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrDuplicate - нарушено ограничение уникальности
var ErrDuplicate = errors.New("duplicate key value")

const uniqueViolation = "23505"

// IsUniqueViolation распознает 23505 от pgx и от lib/pq
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// translate приводит ошибку gorm к сентинелам пакета
func translate(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case IsUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}
