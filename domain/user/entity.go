package user

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null;size:150"`
	Email        string `gorm:"uniqueIndex;not null;size:254"`
	PasswordHash string `gorm:"not null;type:text"`
	Active       bool   `gorm:"not null"`
	Blocked      bool   `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}
