package model

import "time"

// Task is a single item of a TaskList.
type Task struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ListID             uint       `gorm:"index;not null" json:"list_id"`
	Name               string     `gorm:"column:task_name" json:"task_name"`
	CompletionStatus   bool       `gorm:"default:false" json:"completion_status"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time  `json:"-"`
	CompletionDatetime *time.Time `json:"completion_datetime"`
}

// Duration is the time between creation and completion, or nil while the task is open.
func (t Task) Duration() *time.Duration {
	if !t.CompletionStatus || t.CompletionDatetime == nil {
		return nil
	}
	d := t.CompletionDatetime.Sub(t.CreatedAt)
	if d < 0 {
		d = 0
	}
	return &d
}
