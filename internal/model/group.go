package model

import "time"

// Group is a set of users sharing a task history page.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:group_name;not null" json:"group_name"`
	Description string    `gorm:"column:group_description" json:"group_description"`
	OwnerID     uint      `gorm:"index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}
