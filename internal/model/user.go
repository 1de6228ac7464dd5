package model

import "time"

// User is a registered account. GroupID is nil until the user joins a group.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserName       string    `gorm:"uniqueIndex;not null" json:"user_name"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	PasswordHash   string    `gorm:"column:password;not null" json:"-"`
	GroupID        *uint     `gorm:"index" json:"group_id"`
	TelegramChatID *int64    `gorm:"uniqueIndex" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}
