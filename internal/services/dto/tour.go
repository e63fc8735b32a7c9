package dto

import (
	"mime/multipart"
	"time"

	"natours_backend/internal/models"
)

type GeoPointRequest struct {
	Coordinates []float64 `json:"coordinates" validate:"len=2"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
}

// ToGeoPoint - координаты в порядке GeoJSON [lng, lat]
func (g *GeoPointRequest) ToGeoPoint() models.GeoPoint {
	return models.GeoPoint{
		Lng:         g.Coordinates[0],
		Lat:         g.Coordinates[1],
		Address:     g.Address,
		Description: g.Description,
	}
}

type LocationRequest struct {
	GeoPointRequest
	Day int `json:"day" validate:"gte=0"`
}

type CreateTourRequest struct {
	Name            string            `json:"name" validate:"required,min=10,max=40"`
	Duration        int               `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int               `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      string            `json:"difficulty" validate:"required,is-difficulty"`
	RatingsAverage  float64           `json:"ratingsAverage" validate:"omitempty,min=1,max=5"`
	RatingsQuantity int               `json:"ratingsQuantity" validate:"gte=0"`
	Price           float64           `json:"price" validate:"required,gt=0"`
	PriceDiscount   float64           `json:"priceDiscount" validate:"omitempty,gt=0,ltfield=Price"`
	Summary         string            `json:"summary" validate:"required"`
	Description     string            `json:"description"`
	ImageCover      string            `json:"imageCover" validate:"required"`
	Images          []string          `json:"images"`
	StartDates      []time.Time       `json:"startDates"`
	SecretTour      bool              `json:"secretTour"`
	StartLocation   *GeoPointRequest  `json:"startLocation" validate:"omitempty"`
	Locations       []LocationRequest `json:"locations" validate:"omitempty,dive"`
	Guides          []string          `json:"guides" validate:"omitempty,dive,uuid"`
}

// UpdateTourRequest - частичное обновление: nil означает "не менять"
type UpdateTourRequest struct {
	Name           *string           `json:"name" form:"name" validate:"omitempty,min=10,max=40"`
	Duration       *int              `json:"duration" form:"duration" validate:"omitempty,gt=0"`
	MaxGroupSize   *int              `json:"maxGroupSize" form:"maxGroupSize" validate:"omitempty,gt=0"`
	Difficulty     *string           `json:"difficulty" form:"difficulty" validate:"omitempty,is-difficulty"`
	RatingsAverage *float64          `json:"ratingsAverage" form:"ratingsAverage" validate:"omitempty,min=1,max=5"`
	Price          *float64          `json:"price" form:"price" validate:"omitempty,gt=0"`
	PriceDiscount  *float64          `json:"priceDiscount" form:"priceDiscount" validate:"omitempty,gte=0"`
	Summary        *string           `json:"summary" form:"summary" validate:"omitempty,min=1"`
	Description    *string           `json:"description" form:"description"`
	ImageCover     *string           `json:"imageCover" form:"-"`
	Images         []string          `json:"images" form:"-"`
	StartDates     []time.Time       `json:"startDates" form:"-"`
	SecretTour     *bool             `json:"secretTour" form:"secretTour"`
	StartLocation  *GeoPointRequest  `json:"startLocation" form:"-" validate:"omitempty"`
	Locations      []LocationRequest `json:"locations" form:"-" validate:"omitempty,dive"`
	Guides         []string          `json:"guides" form:"-" validate:"omitempty,dive,uuid"`
}

// TourImageFiles - файлы из multipart-запроса обновления тура
type TourImageFiles struct {
	Cover  *multipart.FileHeader
	Images []*multipart.FileHeader
}

func (f *TourImageFiles) Empty() bool {
	return f == nil || (f.Cover == nil && len(f.Images) == 0)
}

// TourImageNames - имена сохраненных файлов
type TourImageNames struct {
	Cover  string
	Images []string
}
