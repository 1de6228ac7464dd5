package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"beefsteak/internal/model"
)

// GroupTaskList is a task list joined with the member it is assigned to.
type GroupTaskList struct {
	ID               uint
	Name             string
	CompletionStatus model.ListStatus
	AssignedUser     uint
	UserName         string
	CreatedAt        time.Time
}

// ListCounts holds lifetime totals for one user.
type ListCounts struct {
	Created   int64
	Completed int64
}

// TaskListRepository handles task lists and their batch of tasks.
type TaskListRepository struct {
	db *gorm.DB
}

func NewTaskListRepository(db *gorm.DB) *TaskListRepository {
	return &TaskListRepository{db: db}
}

// CreateWithTasks inserts the list and then one task per name, in order, in one transaction.
// The generated ids are written back into list and list.Tasks.
func (r *TaskListRepository) CreateWithTasks(ctx context.Context, list *model.TaskList, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list.Tasks = nil
		if err := tx.Omit("Tasks").Create(list).Error; err != nil {
			return fmt.Errorf("create task list: %w", err)
		}
		tasks := make([]model.Task, 0, len(names))
		for _, name := range names {
			task := model.Task{ListID: list.ID, Name: name, CreatedAt: list.CreatedAt}
			if err := tx.Create(&task).Error; err != nil {
				return fmt.Errorf("create task %q: %w", name, err)
			}
			tasks = append(tasks, task)
		}
		list.Tasks = tasks
		return nil
	})
}

func (r *TaskListRepository) FindByID(ctx context.Context, id uint) (*model.TaskList, error) {
	var list model.TaskList
	if err := r.db.WithContext(ctx).First(&list, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &list, nil
}

// FindOwner returns the user the list is assigned to, or ErrNotFound for guest lists.
func (r *TaskListRepository) FindOwner(ctx context.Context, listID uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Joins("INNER JOIN task_lists ON task_lists.assigned_user = users.id").
		Where("task_lists.id = ?", listID).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// MarkCompleted stamps the completion time of a pending or completed list.
// Calling it again re-stamps it. A failed list yields ErrStatusConflict.
func (r *TaskListRepository) MarkCompleted(ctx context.Context, id uint, completedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.TaskList{}).
		Where("id = ? AND completion_status IN ?", id, []model.ListStatus{model.ListPending, model.ListCompleted}).
		Updates(map[string]interface{}{
			"completion_status":   model.ListCompleted,
			"completion_datetime": completedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("complete task list: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// MarkFailed moves a pending list to failed and leaves tasks untouched.
// Any other current status yields ErrStatusConflict.
func (r *TaskListRepository) MarkFailed(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.TaskList{}).
		Where("id = ? AND completion_status = ?", id, model.ListPending).
		Update("completion_status", model.ListFailed)
	if res.Error != nil {
		return fmt.Errorf("fail task list: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *TaskListRepository) missOrConflict(ctx context.Context, id uint) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.TaskList{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("count task list: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStatusConflict
}

// ExpirePending fails every pending list created before cutoff and returns the lists it failed.
// A list finished by someone else after the scan is skipped.
func (r *TaskListRepository) ExpirePending(ctx context.Context, cutoff time.Time) ([]model.TaskList, error) {
	var expired []model.TaskList
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []model.TaskList
		if err := tx.Where("completion_status = ? AND created_at < ?", model.ListPending, cutoff).
			Order("id ASC").Find(&candidates).Error; err != nil {
			return fmt.Errorf("find expired lists: %w", err)
		}
		for _, list := range candidates {
			res := tx.Model(&model.TaskList{}).
				Where("id = ? AND completion_status = ?", list.ID, model.ListPending).
				Update("completion_status", model.ListFailed)
			if res.Error != nil {
				return fmt.Errorf("expire list %d: %w", list.ID, res.Error)
			}
			if res.RowsAffected == 1 {
				list.CompletionStatus = model.ListFailed
				expired = append(expired, list)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// Delete removes the list and its tasks.
func (r *TaskListRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id).Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		res := tx.Delete(&model.TaskList{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete task list: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListByUser returns the user's history, newest first.
func (r *TaskListRepository) ListByUser(ctx context.Context, userID uint) ([]model.TaskList, error) {
	var lists []model.TaskList
	if err := r.db.WithContext(ctx).Where("assigned_user = ?", userID).
		Order("created_at DESC, id DESC").Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

// ListByGroup returns the lists assigned to any member of the group.
func (r *TaskListRepository) ListByGroup(ctx context.Context, groupID uint) ([]GroupTaskList, error) {
	var rows []GroupTaskList
	err := r.db.WithContext(ctx).Model(&model.TaskList{}).
		Select("task_lists.id, task_lists.list_name AS name, task_lists.completion_status, " +
			"task_lists.assigned_user, users.user_name, task_lists.created_at").
		Joins("INNER JOIN users ON task_lists.assigned_user = users.id").
		Where("users.group_id = ?", groupID).
		Order("task_lists.created_at DESC, task_lists.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list group task lists: %w", err)
	}
	return rows, nil
}

// CountByUser returns how many lists the user created and how many they completed.
func (r *TaskListRepository) CountByUser(ctx context.Context, userID uint) (ListCounts, error) {
	var counts ListCounts
	err := r.db.WithContext(ctx).Model(&model.TaskList{}).
		Select("COUNT(*) AS created, COALESCE(SUM(CASE WHEN completion_status = ? THEN 1 ELSE 0 END), 0) AS completed",
			model.ListCompleted).
		Where("assigned_user = ?", userID).
		Scan(&counts).Error
	if err != nil {
		return ListCounts{}, fmt.Errorf("count task lists: %w", err)
	}
	return counts, nil
}
