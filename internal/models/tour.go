package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// GeoPoint - точка на карте. Координаты в порядке GeoJSON: долгота, широта.
type GeoPoint struct {
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
	Address     string  `json:"address,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Location - остановка маршрута тура
type Location struct {
	GeoPoint
	Day int `json:"day"`
}

// DefaultRatingsAverage - рейтинг тура без отзывов
const DefaultRatingsAverage = 1.5

type Tour struct {
	BaseModel
	Name            string                         `gorm:"uniqueIndex;not null;size:40" json:"name"`
	Slug            string                         `gorm:"uniqueIndex" json:"slug"`
	Duration        int                            `gorm:"not null" json:"duration"`
	MaxGroupSize    int                            `gorm:"not null" json:"maxGroupSize"`
	Difficulty      Difficulty                     `gorm:"type:varchar(20);not null" json:"difficulty"`
	RatingsAverage  float64                        `gorm:"not null;default:1.5" json:"ratingsAverage"`
	RatingsQuantity int                            `gorm:"not null;default:0" json:"ratingsQuantity"`
	Price           float64                        `gorm:"not null;index" json:"price"`
	PriceDiscount   *float64                       `json:"priceDiscount,omitempty"`
	Summary         string                         `gorm:"not null" json:"summary"`
	Description     string                         `json:"description"`
	ImageCover      string                         `gorm:"not null" json:"imageCover"`
	Images          pq.StringArray                 `gorm:"type:text[]" json:"images"`
	StartDates      datatypes.JSONSlice[time.Time] `json:"startDates"`
	SecretTour      bool                           `gorm:"not null;default:false;index" json:"-"`
	StartLocation   GeoPoint                       `gorm:"embedded;embeddedPrefix:start_location_" json:"startLocation"`
	Locations       datatypes.JSONSlice[Location]  `json:"locations"`
	Version         int                            `gorm:"not null;default:0" json:"-"`

	Guides  []User   `gorm:"many2many:tour_guides" json:"guides,omitempty"`
	Reviews []Review `gorm:"foreignKey:TourID" json:"reviews,omitempty"`
}

// DurationWeeks - вычисляемое поле, в базе не хранится
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// tourFields - Tour без методов, чтобы MarshalJSON не зациклился
type tourFields Tour

// MarshalJSON добавляет durationWeeks. Если duration не попал в выборку (fields=name),
// поле опускается.
func (t Tour) MarshalJSON() ([]byte, error) {
	out := struct {
		tourFields
		DurationWeeks *float64 `json:"durationWeeks,omitempty"`
	}{tourFields: tourFields(t)}

	if t.Duration > 0 {
		weeks := t.DurationWeeks()
		out.DurationWeeks = &weeks
	}
	return json.Marshal(out)
}

// RoundRating округляет рейтинг до одного знака (4.666 -> 4.7)
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
