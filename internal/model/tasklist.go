package model

import "time"

// ListStatus is the lifecycle state of a persisted task list.
type ListStatus string

const (
	ListPending   ListStatus = "pending"
	ListCompleted ListStatus = "completed"
	ListFailed    ListStatus = "failed"
)

// Terminal reports whether no further transition may leave the status.
func (s ListStatus) Terminal() bool {
	return s == ListCompleted || s == ListFailed
}

// TaskList is a named batch of up to three tasks.
// CompletionDatetime is set only when the list is completed.
type TaskList struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"column:list_name;not null" json:"list_name"`
	Description        string     `gorm:"column:list_description" json:"list_description"`
	AssignedUser       *uint      `gorm:"index" json:"assigned_user"`
	CompletionStatus   ListStatus `gorm:"type:varchar(16);default:pending;index" json:"completion_status"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time  `json:"-"`
	CompletionDatetime *time.Time `json:"completion_datetime"`
	Tasks              []Task     `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE" json:"-"`
}
