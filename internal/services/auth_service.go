package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"natours_backend/internal/auth"
	"natours_backend/internal/email"
	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// AuthService - выдача и проверка сессий, регистрация, сброс пароля
type AuthService interface {
	Signup(ctx context.Context, db *gorm.DB, req *dto.SignupRequest) (*dto.Session, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.Session, error)
	// Verify проверяет токен и возвращает его владельца
	Verify(ctx context.Context, db *gorm.DB, token string) (*models.User, error)
	ForgotPassword(ctx context.Context, db *gorm.DB, email string) error
	ResetPassword(ctx context.Context, db *gorm.DB, token string, req *dto.ResetPasswordRequest) (*dto.Session, error)
	UpdatePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdatePasswordRequest) (*dto.Session, error)
}

type AuthConfig struct {
	Secret   []byte
	TokenTTL time.Duration
	// BaseURL - публичный адрес сайта для ссылок в письмах
	BaseURL string
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	mailer   email.Sender
	config   AuthConfig
	now      func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, mailer email.Sender, config AuthConfig) AuthService {
	return &AuthServiceImpl{
		userRepo: userRepo,
		mailer:   mailer,
		config:   config,
		now:      time.Now,
	}
}

func (s *AuthServiceImpl) Signup(ctx context.Context, db *gorm.DB, req *dto.SignupRequest) (*dto.Session, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, passwordError(err)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, passwordError(err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
		Photo:        models.DefaultUserPhoto,
		Active:       true,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		return nil, handleRepoError(err)
	}

	// письмо не должно ломать регистрацию
	recipient := email.Recipient{Email: user.Email, Name: user.Name}
	if err := s.mailer.SendWelcome(ctx, recipient, s.config.BaseURL+"/me"); err != nil {
		logger.CtxWithError(ctx, "failed to send welcome email", err, "user_id", user.ID)
	}

	return s.issue(user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.Session, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperrors.ErrMissingCredentials
	}

	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// тот же ответ, что и для неверного пароля
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, handleRepoError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	logger.CtxInfo(ctx, "user logged in", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthServiceImpl) Verify(ctx context.Context, db *gorm.DB, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.config.Secret)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(db, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrTokenUserGone
		}
		return nil, handleRepoError(err)
	}

	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, apperrors.ErrPasswordChanged
	}
	return user, nil
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, db *gorm.DB, address string) error {
	user, err := s.userRepo.FindByEmail(db, address)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNoUserWithEmail
		}
		return handleRepoError(err)
	}

	plain, hashed, err := auth.NewResetToken()
	if err != nil {
		return apperrors.InternalError(err)
	}
	expires := s.now().Add(auth.ResetTokenTTL)
	if err := s.userRepo.SetResetToken(db, user.ID, &hashed, &expires); err != nil {
		return handleRepoError(err)
	}
	user.PasswordResetToken = &hashed
	user.PasswordResetExpires = &expires

	resetURL := s.config.BaseURL + "/api/v1/users/resetPassword/" + plain
	recipient := email.Recipient{Email: user.Email, Name: user.Name}
	if err := s.mailer.SendPasswordReset(ctx, recipient, resetURL); err != nil {
		logger.CtxWithError(ctx, "failed to send password reset email", err, "user_id", user.ID)

		// токен без письма бесполезен, откатываем
		if rollbackErr := s.userRepo.SetResetToken(db, user.ID, nil, nil); rollbackErr != nil {
			logger.CtxWithError(ctx, "failed to clear reset token", rollbackErr, "user_id", user.ID)
		} else {
			user.PasswordResetToken = nil
			user.PasswordResetExpires = nil
		}
		return apperrors.ErrResetEmailFailed(err)
	}
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, db *gorm.DB, token string, req *dto.ResetPasswordRequest) (*dto.Session, error) {
	hashed := auth.HashResetToken(token)
	user, err := s.userRepo.FindByResetToken(db, hashed, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrResetTokenInvalid
		}
		return nil, handleRepoError(err)
	}

	change, err := s.newPassword(req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.ConsumeResetToken(db, user.ID, hashed, s.now(), change); err != nil {
		if errors.Is(err, repositories.ErrResetTokenInvalid) {
			return nil, apperrors.ErrResetTokenInvalid
		}
		return nil, handleRepoError(err)
	}
	applyPassword(user, change)
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil

	logger.CtxInfo(ctx, "password reset completed", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdatePasswordRequest) (*dto.Session, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleRepoError(err)
	}

	if !auth.CheckPasswordHash(req.PasswordCurrent, user.PasswordHash) {
		return nil, apperrors.ErrWrongCurrentPassword
	}

	change, err := s.newPassword(req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetPassword(db, user.ID, change); err != nil {
		return nil, handleRepoError(err)
	}
	applyPassword(user, change)

	return s.issue(user)
}

// newPassword хеширует новый пароль и сдвигает отметку смены на секунду назад,
// чтобы токен, выданный сразу после смены, не считался устаревшим
func (s *AuthServiceImpl) newPassword(password string) (repositories.PasswordChange, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return repositories.PasswordChange{}, passwordError(err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return repositories.PasswordChange{}, passwordError(err)
	}
	return repositories.PasswordChange{Hash: hash, ChangedAt: s.now().Add(-time.Second)}, nil
}

func applyPassword(user *models.User, change repositories.PasswordChange) {
	changedAt := change.ChangedAt
	user.PasswordHash = change.Hash
	user.PasswordChangedAt = &changedAt
}

func (s *AuthServiceImpl) issue(user *models.User) (*dto.Session, error) {
	token, err := auth.GenerateToken(user.ID, s.config.Secret, s.config.TokenTTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.Session{Token: token, User: user}, nil
}

func passwordError(err error) error {
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return apperrors.ValidationError(map[string]string{"password": "Must be at least 8 characters"})
	}
	return apperrors.InternalError(err)
}
