package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email     string `gorm:"unique;not null"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `gorm:"default:'user'"` // user, admin
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}

// TokenBlocklist stores revoked JWT ids so logout invalidates the token
// until it would have expired anyway.
type TokenBlocklist struct {
	gorm.Model
	Jti       string    `gorm:"uniqueIndex;size:36;not null"`
	ExpiresAt time.Time `gorm:"index"`
}
