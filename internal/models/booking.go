package models

type Booking struct {
	BaseModel
	TourID          string  `gorm:"type:uuid;not null;index" json:"tourId"`
	UserID          string  `gorm:"type:uuid;not null;index" json:"userId"`
	Price           float64 `gorm:"not null" json:"price"`
	Paid            bool    `gorm:"not null;default:true" json:"paid"`
	StripeSessionID *string `gorm:"uniqueIndex" json:"-"`

	Tour *Tour `gorm:"foreignKey:TourID" json:"tour,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
