package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage - хранилище загруженных изображений (аватары, обложки туров)
type Storage interface {
	// Save сохраняет файл по пути path
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Get открывает файл на чтение
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete удаляет файл. Отсутствующий файл ошибкой не считается.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// GetURL возвращает публичный адрес файла
	GetURL(ctx context.Context, path string) (string, error)
}

// Config holds storage configuration
type Config struct {
	Type      string // local, s3, cloudflare_r2
	BasePath  string // For local storage
	BaseURL   string // Public URL base
	Bucket    string // For S3/R2
	Region    string // For S3
	AccessKey string // For S3/R2
	SecretKey string // For S3/R2
	Endpoint  string // For R2, MinIO or custom S3
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(ctx, cfg)
	case "cloudflare_r2":
		// R2 совместим с S3, регион всегда auto
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required for Cloudflare R2")
		}
		cfg.Region = "auto"
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
