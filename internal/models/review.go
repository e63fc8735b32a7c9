package models

type Review struct {
	BaseModel
	Review string `gorm:"not null" json:"review"`
	Rating int    `gorm:"not null" json:"rating"`
	TourID string `gorm:"type:uuid;not null;uniqueIndex:idx_review_tour_user" json:"tour"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_review_tour_user" json:"userId"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tour *Tour `gorm:"foreignKey:TourID" json:"-"`
}
