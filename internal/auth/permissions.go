package auth

import (
	"errors"

	"natours_backend/internal/models"
)

var ErrInvalidRole = errors.New("invalid role")

// Роли, которым разрешено управлять турами
var TourManagers = []models.UserRole{models.UserRoleAdmin, models.UserRoleLeadGuide}

// Роли, которые видят месячный план
var TourStaff = []models.UserRole{models.UserRoleAdmin, models.UserRoleLeadGuide, models.UserRoleGuide}

// HasRole проверяет, входит ли роль в разрешенный набор
func HasRole(role models.UserRole, allowed ...models.UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin проверяет является ли пользователь администратором
func IsAdmin(role models.UserRole) bool {
	return role == models.UserRoleAdmin
}

// ValidateRole проверяет валидность роли
func ValidateRole(role string) error {
	if !models.UserRole(role).IsValid() {
		return ErrInvalidRole
	}
	return nil
}
