package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"natours_backend/internal/imageprocessor"
	"natours_backend/internal/logger"
	"natours_backend/internal/services/dto"
	"natours_backend/internal/storage"
	"natours_backend/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

const (
	UserImageDir = "img/users"
	TourImageDir = "img/tours"

	// MaxTourImages - сколько дополнительных фото тура принимается за раз
	MaxTourImages = 3
)

// UploadService - прием изображений: проверка типа, ресайз, сохранение
type UploadService interface {
	// UploadUserPhoto возвращает имя файла для поля User.Photo
	UploadUserPhoto(ctx context.Context, userID string, file *multipart.FileHeader) (string, error)
	UploadTourImages(ctx context.Context, tourID string, files *dto.TourImageFiles) (*dto.TourImageNames, error)
}

type UploadConfig struct {
	MaxFileSize  int64
	ImageQuality int
}

type uploadService struct {
	storage   storage.Storage
	processor *imageprocessor.Processor
	config    UploadConfig
	now       func() time.Time
}

func NewUploadService(storage storage.Storage, config UploadConfig) UploadService {
	return &uploadService{
		storage:   storage,
		processor: imageprocessor.NewProcessor(config.ImageQuality),
		config:    config,
		now:       time.Now,
	}
}

func (s *uploadService) UploadUserPhoto(ctx context.Context, userID string, file *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("user-%s-%d.jpeg", userID, s.now().UnixMilli())
	if err := s.store(ctx, file, imageprocessor.SizeUserPhoto, path.Join(UserImageDir, name)); err != nil {
		return "", err
	}
	return name, nil
}

func (s *uploadService) UploadTourImages(ctx context.Context, tourID string, files *dto.TourImageFiles) (*dto.TourImageNames, error) {
	if files.Empty() {
		return &dto.TourImageNames{}, nil
	}
	if len(files.Images) > MaxTourImages {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("You can upload at most %d tour images.", MaxTourImages))
	}

	ts := s.now().UnixMilli()
	names := &dto.TourImageNames{Images: make([]string, len(files.Images))}

	g, gctx := errgroup.WithContext(ctx)

	if files.Cover != nil {
		names.Cover = fmt.Sprintf("tour-%s-%d-cover.jpeg", tourID, ts)
		g.Go(func() error {
			return s.store(gctx, files.Cover, imageprocessor.SizeTourImage, path.Join(TourImageDir, names.Cover))
		})
	}

	for i, file := range files.Images {
		i, file := i, file
		names.Images[i] = fmt.Sprintf("tour-%s-%d-%d.jpeg", tourID, ts, i+1)
		g.Go(func() error {
			return s.store(gctx, file, imageprocessor.SizeTourImage, path.Join(TourImageDir, names.Images[i]))
		})
	}

	if err := g.Wait(); err != nil {
		s.cleanup(ctx, names)
		return nil, err
	}
	return names, nil
}

// store проверяет, что файл - изображение, приводит к размеру и сохраняет JPEG
func (s *uploadService) store(ctx context.Context, file *multipart.FileHeader, size imageprocessor.ImageSize, key string) error {
	if s.config.MaxFileSize > 0 && file.Size > s.config.MaxFileSize {
		return apperrors.NewBadRequestError(fmt.Sprintf("File %s is too large.", file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		return apperrors.InternalError(fmt.Errorf("failed to open uploaded file: %w", err))
	}
	defer src.Close()

	image, err := s.decodeImage(src)
	if err != nil {
		return err
	}

	data, err := s.processor.ProcessImage(image, size)
	if err != nil {
		return apperrors.ErrNotAnImage
	}

	if err := s.storage.Save(ctx, key, bytes.NewReader(data), "image/jpeg"); err != nil {
		return apperrors.InternalError(fmt.Errorf("failed to save image: %w", err))
	}
	return nil
}

// decodeImage определяет тип по содержимому, а не по расширению или заголовку клиента
func (s *uploadService) decodeImage(src io.Reader) (io.Reader, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, apperrors.InternalError(err)
	}
	head = head[:n]

	if !strings.HasPrefix(mimetype.Detect(head).String(), "image/") {
		return nil, apperrors.ErrNotAnImage
	}
	return io.MultiReader(bytes.NewReader(head), src), nil
}

func (s *uploadService) cleanup(ctx context.Context, names *dto.TourImageNames) {
	keys := make([]string, 0, len(names.Images)+1)
	if names.Cover != "" {
		keys = append(keys, path.Join(TourImageDir, names.Cover))
	}
	for _, name := range names.Images {
		keys = append(keys, path.Join(TourImageDir, name))
	}
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			logger.CtxWithError(ctx, "failed to remove partial upload", err, "key", key)
		}
	}
}
