package models

import "time"

// User represents the user model in the database. Users registered through
// the Google OAuth flow have GoogleID set and no local password.
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `json:"-"`
	GoogleID         string     `gorm:"index" json:"-"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	Holdings         []Holding  `gorm:"foreignKey:UserEmail;references:Email" json:"holdings,omitempty"`
}
