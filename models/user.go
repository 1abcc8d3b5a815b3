package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a storefront account (customer or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FirstName string         `gorm:"not null" json:"first_name"`
	LastName  string         `gorm:"not null" json:"last_name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Role      string         `gorm:"not null;default:'customer'" json:"role"` // "customer" or "admin"
	IsBlocked bool           `gorm:"not null;default:false" json:"is_blocked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// FullName returns the customer's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsAdmin returns true for admin accounts
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
