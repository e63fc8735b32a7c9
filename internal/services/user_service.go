package services

import (
	"context"
	"mime/multipart"
	"strings"

	"natours_backend/internal/auth"
	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/internal/query"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	GetUser(db *gorm.DB, id string) (*models.User, error)
	ListUsers(db *gorm.DB, spec *query.Spec) ([]models.User, error)

	// Текущий пользователь
	UpdateMe(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateMeRequest, photo *multipart.FileHeader) (*models.User, error)
	DeleteMe(ctx context.Context, db *gorm.DB, userID string) error

	// Администратор
	UpdateUser(db *gorm.DB, id string, req *dto.AdminUpdateUserRequest) (*models.User, error)
	DeleteUser(db *gorm.DB, id string) error
}

type UserServiceImpl struct {
	userRepo repositories.UserRepository
	uploads  UploadService
	maxLimit int
}

func NewUserService(userRepo repositories.UserRepository, uploads UploadService, maxLimit int) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		uploads:  uploads,
		maxLimit: maxLimit,
	}
}

func (s *UserServiceImpl) GetUser(db *gorm.DB, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, id)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return user, nil
}

func (s *UserServiceImpl) ListUsers(db *gorm.DB, spec *query.Spec) ([]models.User, error) {
	users, err := s.userRepo.List(db, spec, s.maxLimit)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return users, nil
}

// UpdateMe меняет только имя, email и фото. Пароль меняется через /updateMyPassword.
func (s *UserServiceImpl) UpdateMe(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateMeRequest, photo *multipart.FileHeader) (*models.User, error) {
	if req.Password != "" || req.PasswordConfirm != "" {
		return nil, apperrors.ErrPasswordUpdateNotAllowed
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if photo != nil {
		name, err := s.uploads.UploadUserPhoto(ctx, userID, photo)
		if err != nil {
			return nil, err
		}
		fields["photo"] = name
	}

	if len(fields) == 0 {
		return s.GetUser(db, userID)
	}

	user, err := s.userRepo.UpdateFields(db, userID, fields)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return user, nil
}

// DeleteMe - мягкое удаление: учетная запись деактивируется
func (s *UserServiceImpl) DeleteMe(ctx context.Context, db *gorm.DB, userID string) error {
	if err := s.userRepo.Deactivate(db, userID); err != nil {
		return handleRepoError(err)
	}
	logger.CtxInfo(ctx, "user deactivated", "user_id", userID)
	return nil
}

func (s *UserServiceImpl) UpdateUser(db *gorm.DB, id string, req *dto.AdminUpdateUserRequest) (*models.User, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Role != nil {
		if err := auth.ValidateRole(*req.Role); err != nil {
			return nil, apperrors.ValidationError(map[string]string{"role": "Role is either: user, guide, lead-guide, admin"})
		}
		fields["role"] = models.UserRole(*req.Role)
	}
	if req.Photo != nil {
		fields["photo"] = *req.Photo
	}

	if len(fields) == 0 {
		return s.GetUser(db, id)
	}

	user, err := s.userRepo.UpdateFields(db, id, fields)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return user, nil
}

func (s *UserServiceImpl) DeleteUser(db *gorm.DB, id string) error {
	return handleRepoError(s.userRepo.Delete(db, id))
}
