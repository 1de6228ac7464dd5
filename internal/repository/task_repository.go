package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"beefsteak/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// ListByList returns the list's tasks in submission order.
func (r *TaskRepository) ListByList(ctx context.Context, listID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("list_id = ?", listID).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkCompleted stamps the task as done at completedAt. A second call moves the stamp.
func (r *TaskRepository) MarkCompleted(ctx context.Context, id uint, completedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
		"completion_status":   true,
		"completion_datetime": completedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("complete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompletedInWindow returns the user's completed tasks created in [from, to).
func (r *TaskRepository) CompletedInWindow(ctx context.Context, userID uint, from, to time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Select("tasks.*").
		Joins("INNER JOIN task_lists ON tasks.list_id = task_lists.id").
		Joins("INNER JOIN users ON task_lists.assigned_user = users.id").
		Where("users.id = ?", userID).
		Where("tasks.created_at >= ? AND tasks.created_at < ?", from, to).
		Where("tasks.completion_status = ?", true).
		Order("tasks.id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("tasks in window: %w", err)
	}
	return tasks, nil
}
