package models

import "gorm.io/gorm"

// User represents a user in the system.
type User struct {
	gorm.Model
	Username     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	// Deactivated accounts keep their rows but cannot take part in any
	// new friendship action.
	IsActive bool `gorm:"not null;default:true;index"`

	// Head-to-head match stats, shown on profiles.
	Wins   int `gorm:"not null;default:0"`
	Losses int `gorm:"not null;default:0"`
	Draws  int `gorm:"not null;default:0"`
	Points int `gorm:"not null;default:0"`
}
