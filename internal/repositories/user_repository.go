package repositories

import (
	"errors"
	"strings"
	"time"

	"natours_backend/internal/models"
	"natours_backend/internal/query"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrResetTokenInvalid = errors.New("reset token is invalid or has expired")
)

// PasswordChange - новый хеш пароля и момент смены
type PasswordChange struct {
	Hash      string
	ChangedAt time.Time
}

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByResetToken(db *gorm.DB, hashedToken string, now time.Time) (*models.User, error)
	FindByIDs(db *gorm.DB, ids []string) ([]models.User, error)
	SetResetToken(db *gorm.DB, id string, hashedToken *string, expires *time.Time) error
	SetPassword(db *gorm.DB, id string, change PasswordChange) error
	// ConsumeResetToken меняет пароль и гасит токен одним условным UPDATE
	ConsumeResetToken(db *gorm.DB, id, hashedToken string, now time.Time, change PasswordChange) error
	UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) (*models.User, error)
	Deactivate(db *gorm.DB, id string) error
	Delete(db *gorm.DB, id string) error
	List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.User, error)

	// Обслуживание
	ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

// ActiveUsers - удаленные (деактивированные) пользователи невидимы для всех выборок
func ActiveUsers(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := db.Create(user).Error
	if IsUniqueViolation(err) {
		return ErrUserAlreadyExists
	}
	return err
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.Scopes(ActiveUsers).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Scopes(ActiveUsers).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return &user, nil
}

// FindByResetToken ищет по хешу токена, срок которого еще не истек
func (r *UserRepositoryImpl) FindByResetToken(db *gorm.DB, hashedToken string, now time.Time) (*models.User, error) {
	var user models.User
	err := db.Scopes(ActiveUsers).
		Where("password_reset_token = ? AND password_reset_expires > ?", hashedToken, now).
		First(&user).Error
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByIDs(db *gorm.DB, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := db.Scopes(ActiveUsers).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// SetResetToken записывает или (при nil) стирает только поля сброса пароля
func (r *UserRepositoryImpl) SetResetToken(db *gorm.DB, id string, hashedToken *string, expires *time.Time) error {
	fields := map[string]interface{}{
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	}
	if hashedToken != nil && expires != nil {
		fields["password_reset_token"] = *hashedToken
		fields["password_reset_expires"] = *expires
	}
	return r.updateActive(db, fields, ErrUserNotFound, "id = ?", id)
}

func (r *UserRepositoryImpl) SetPassword(db *gorm.DB, id string, change PasswordChange) error {
	return r.updateActive(db, passwordFields(change), ErrUserNotFound, "id = ?", id)
}

// ConsumeResetToken срабатывает не больше одного раза на токен: второй
// параллельный запрос после блокировки строки уже не находит токен и получает ErrResetTokenInvalid
func (r *UserRepositoryImpl) ConsumeResetToken(db *gorm.DB, id, hashedToken string, now time.Time, change PasswordChange) error {
	fields := passwordFields(change)
	fields["password_reset_token"] = nil
	fields["password_reset_expires"] = nil

	return r.updateActive(db, fields, ErrResetTokenInvalid,
		"id = ? AND password_reset_token = ? AND password_reset_expires > ?", id, hashedToken, now)
}

func passwordFields(change PasswordChange) map[string]interface{} {
	return map[string]interface{}{
		"password_hash":       change.Hash,
		"password_changed_at": change.ChangedAt,
	}
}

func (r *UserRepositoryImpl) updateActive(db *gorm.DB, fields map[string]interface{}, missing error, cond string, args ...interface{}) error {
	result := db.Model(&models.User{}).Scopes(ActiveUsers).Where(cond, args...).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return missing
	}
	return nil
}

// UpdateFields обновляет только переданные колонки и возвращает свежую запись
func (r *UserRepositoryImpl) UpdateFields(db *gorm.DB, id string, fields map[string]interface{}) (*models.User, error) {
	if email, ok := fields["email"].(string); ok {
		fields["email"] = strings.ToLower(strings.TrimSpace(email))
	}

	result := db.Model(&models.User{}).Scopes(ActiveUsers).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return nil, ErrUserAlreadyExists
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.FindByID(db, id)
}

func (r *UserRepositoryImpl) Deactivate(db *gorm.DB, id string) error {
	result := db.Model(&models.User{}).Where("id = ? AND active = ?", id, true).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete удаляет пользователя вместе с его отзывами, бронированиями и участием в турах.
// Рейтинги затронутых туров пересчитываются в той же транзакции.
func (r *UserRepositoryImpl) Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var tourIDs []string
		if err := tx.Model(&models.Review{}).Where("user_id = ?", id).Distinct().Pluck("tour_id", &tourIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM tour_guides WHERE user_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}

		tours := NewTourRepository()
		for _, tourID := range tourIDs {
			if err := tours.UpdateRatings(tx, tourID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *UserRepositoryImpl) List(db *gorm.DB, spec *query.Spec, maxLimit int) ([]models.User, error) {
	var users []models.User
	err := query.New(db, &models.User{}, spec,
		query.WithMaxLimit(maxLimit),
		query.WithScope(ActiveUsers),
	).All().Find(&users)
	return users, err
}

func (r *UserRepositoryImpl) ClearExpiredResetTokens(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.User{}).
		Where("password_reset_token IS NOT NULL AND password_reset_expires <= ?", now).
		Updates(map[string]interface{}{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	return result.RowsAffected, result.Error
}
