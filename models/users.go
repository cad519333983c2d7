package models

import "time"

// Roles carried in access tokens
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is an administrator account for the local identity provider.
type User struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(50);not null;default:'admin'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
