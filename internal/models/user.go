package models

import "time"

const DefaultUserPhoto = "default.jpg"

// User - учетная запись. Хеш пароля и поля сброса никогда не сериализуются.
type User struct {
	BaseModel
	Name                 string     `gorm:"not null" json:"name"`
	Email                string     `gorm:"uniqueIndex;not null" json:"email"`
	Photo                string     `gorm:"default:'default.jpg'" json:"photo"`
	Role                 UserRole   `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	PasswordHash         string     `gorm:"not null" json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   *string    `gorm:"index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `gorm:"not null;default:true;index" json:"-"`
}

// ChangedPasswordAfter - пароль сменили позже, чем был выдан токен (iat в секундах)
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}
