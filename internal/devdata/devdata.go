// Package devdata загружает и удаляет демонстрационные данные
// (tours.json, users.json, reviews.json).
package devdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"natours_backend/internal/auth"
	"natours_backend/internal/logger"
	"natours_backend/internal/models"
	"natours_backend/internal/repositories"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// point - GeoJSON точка из файлов; coordinates в порядке [lng, lat]
type point struct {
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Day         int       `json:"day"`
}

func (p point) geo() (models.GeoPoint, error) {
	if len(p.Coordinates) != 2 {
		return models.GeoPoint{}, fmt.Errorf("point %q: want [lng, lat], got %v", p.Description, p.Coordinates)
	}
	return models.GeoPoint{
		Lng:         p.Coordinates[0],
		Lat:         p.Coordinates[1],
		Address:     p.Address,
		Description: p.Description,
	}, nil
}

type tourRecord struct {
	ID              string      `json:"_id"`
	Name            string      `json:"name"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      string      `json:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"priceDiscount"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images"`
	StartDates      []time.Time `json:"startDates"`
	SecretTour      bool        `json:"secretTour"`
	StartLocation   point       `json:"startLocation"`
	Locations       []point     `json:"locations"`
	Guides          []string    `json:"guides"`
}

type userRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Photo    string `json:"photo"`
	Active   *bool  `json:"active"`
	Password string `json:"password"`
}

type reviewRecord struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
	User   string `json:"user"`
	Tour   string `json:"tour"`
}

// Dataset - содержимое каталога dev-data
type Dataset struct {
	Tours   []tourRecord
	Users   []userRecord
	Reviews []reviewRecord
}

// Load читает tours.json, users.json и reviews.json из dir
func Load(dir string) (*Dataset, error) {
	var ds Dataset
	files := []struct {
		name string
		dst  interface{}
	}{
		{"tours.json", &ds.Tours},
		{"users.json", &ds.Users},
		{"reviews.json", &ds.Reviews},
	}

	for _, f := range files {
		raw, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
	}
	return &ds, nil
}

// Importer пишет Dataset через репозитории приложения.
// Внешние _id из файлов заменяются новыми UUID.
type Importer struct {
	users   repositories.UserRepository
	tours   repositories.TourRepository
	reviews repositories.ReviewRepository
}

func NewImporter(users repositories.UserRepository, tours repositories.TourRepository, reviews repositories.ReviewRepository) *Importer {
	return &Importer{users: users, tours: tours, reviews: reviews}
}

// Stats - сколько записей создано
type Stats struct {
	Users   int
	Tours   int
	Reviews int
}

// Import загружает все в одной транзакции и пересчитывает рейтинги
func (im *Importer) Import(db *gorm.DB, ds *Dataset) (Stats, error) {
	var stats Stats
	err := db.Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]string, len(ds.Users)+len(ds.Tours))

		for _, rec := range ds.Users {
			user, err := toUser(rec)
			if err != nil {
				return err
			}
			if err := im.users.Create(tx, user); err != nil {
				return fmt.Errorf("user %s: %w", rec.Email, err)
			}
			ids[rec.ID] = user.ID
			stats.Users++
		}

		for _, rec := range ds.Tours {
			tour, err := toTour(rec, ids)
			if err != nil {
				return err
			}
			if err := im.tours.Create(tx, tour); err != nil {
				return fmt.Errorf("tour %s: %w", rec.Name, err)
			}
			ids[rec.ID] = tour.ID
			stats.Tours++
		}

		for i, rec := range ds.Reviews {
			review, err := toReview(rec, ids)
			if err != nil {
				return fmt.Errorf("review #%d: %w", i, err)
			}
			if err := im.reviews.Create(tx, review); err != nil {
				return fmt.Errorf("review #%d: %w", i, err)
			}
			stats.Reviews++
		}

		_, err := im.tours.RecomputeAllRatings(tx)
		return err
	})
	if err != nil {
		return Stats{}, err
	}

	logger.Info("Dev data imported", "users", stats.Users, "tours", stats.Tours, "reviews", stats.Reviews)
	return stats, nil
}

func toUser(rec userRecord) (*models.User, error) {
	// в файлах пароли уже захешированы; открытый текст хешируем здесь
	hash := rec.Password
	if !strings.HasPrefix(hash, "$2") {
		var err error
		if hash, err = auth.HashPassword(rec.Password); err != nil {
			return nil, fmt.Errorf("user %s: %w", rec.Email, err)
		}
	}

	role := models.UserRole(rec.Role)
	if rec.Role == "" {
		role = models.UserRoleUser
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("user %s: unknown role %q", rec.Email, rec.Role)
	}
	photo := rec.Photo
	if photo == "" {
		photo = models.DefaultUserPhoto
	}
	active := rec.Active == nil || *rec.Active

	return &models.User{
		BaseModel:    models.BaseModel{ID: uuid.NewString()},
		Name:         rec.Name,
		Email:        rec.Email,
		Photo:        photo,
		Role:         role,
		PasswordHash: hash,
		Active:       active,
	}, nil
}

func toTour(rec tourRecord, ids map[string]string) (*models.Tour, error) {
	if !models.Difficulty(rec.Difficulty).IsValid() {
		return nil, fmt.Errorf("tour %s: unknown difficulty %q", rec.Name, rec.Difficulty)
	}

	start, err := rec.StartLocation.geo()
	if err != nil {
		return nil, fmt.Errorf("tour %s: %w", rec.Name, err)
	}

	locations := make([]models.Location, 0, len(rec.Locations))
	for _, p := range rec.Locations {
		geo, err := p.geo()
		if err != nil {
			return nil, fmt.Errorf("tour %s: %w", rec.Name, err)
		}
		locations = append(locations, models.Location{GeoPoint: geo, Day: p.Day})
	}

	guides := make([]models.User, 0, len(rec.Guides))
	for _, ext := range rec.Guides {
		id, ok := ids[ext]
		if !ok {
			return nil, fmt.Errorf("tour %s: unknown guide %s", rec.Name, ext)
		}
		guides = append(guides, models.User{BaseModel: models.BaseModel{ID: id}})
	}

	return &models.Tour{
		BaseModel:       models.BaseModel{ID: uuid.NewString()},
		Name:            rec.Name,
		Duration:        rec.Duration,
		MaxGroupSize:    rec.MaxGroupSize,
		Difficulty:      models.Difficulty(rec.Difficulty),
		RatingsAverage:  rec.RatingsAverage,
		RatingsQuantity: rec.RatingsQuantity,
		Price:           rec.Price,
		PriceDiscount:   rec.PriceDiscount,
		Summary:         rec.Summary,
		Description:     rec.Description,
		ImageCover:      rec.ImageCover,
		Images:          pq.StringArray(rec.Images),
		StartDates:      datatypes.JSONSlice[time.Time](rec.StartDates),
		SecretTour:      rec.SecretTour,
		StartLocation:   start,
		Locations:       datatypes.JSONSlice[models.Location](locations),
		Guides:          guides,
	}, nil
}

func toReview(rec reviewRecord, ids map[string]string) (*models.Review, error) {
	userID, ok := ids[rec.User]
	if !ok {
		return nil, fmt.Errorf("unknown user %s", rec.User)
	}
	tourID, ok := ids[rec.Tour]
	if !ok {
		return nil, fmt.Errorf("unknown tour %s", rec.Tour)
	}
	return &models.Review{Review: rec.Review, Rating: rec.Rating, UserID: userID, TourID: tourID}, nil
}

// DeleteAll очищает бронирования, отзывы, туры и пользователей
func DeleteAll(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"bookings", "reviews", "tour_guides", "tours", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		logger.Info("Dev data deleted")
		return nil
	})
}
