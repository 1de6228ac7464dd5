package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"beefsteak/internal/metrics"
	"beefsteak/internal/model"
	"beefsteak/internal/repository"
	"beefsteak/internal/session"
)

// DefaultCompletionWindow is how long a list may stay in progress before it counts as failed.
const DefaultCompletionWindow = 25 * time.Minute

// SubmitInput is a list as entered on the form. TaskNames keeps all slots, blanks included.
type SubmitInput struct {
	Name        string
	Description string
	TaskNames   []string
}

// Owner is the user a list is assigned to, or the guest placeholder for unassigned lists.
type Owner struct {
	ID       uint   `json:"id"`
	UserName string `json:"user_name"`
	GroupID  *uint  `json:"group_id,omitempty"`
	Guest    bool   `json:"guest"`
}

// KnownOwner wraps a stored user.
func KnownOwner(u *model.User) Owner {
	return Owner{ID: u.ID, UserName: u.UserName, GroupID: u.GroupID}
}

// GuestOwner is the synthetic owner of lists created without logging in.
func GuestOwner() Owner {
	return Owner{ID: 0, UserName: "guest", Guest: true}
}

// TaskSummary is one task row with its computed duration.
type TaskSummary struct {
	ID               uint       `json:"id"`
	Name             string     `json:"task_name"`
	CompletionStatus bool       `json:"completion_status"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completion_datetime,omitempty"`
	DurationSeconds  *float64   `json:"duration_seconds,omitempty"`
}

// Summary is a list with its ordered tasks and owner, as shown after completion.
type Summary struct {
	List     model.TaskList `json:"list_data"`
	Tasks    []TaskSummary  `json:"task_data"`
	Owner    Owner          `json:"user_data"`
	Editable bool           `json:"user_edit_status"`
}

type statsInvalidator interface {
	Invalidate(ctx context.Context, userID uint)
}

// TaskService runs task lists from submission to completion or failure.
type TaskService struct {
	lists   *repository.TaskListRepository
	tasks   *repository.TaskRepository
	metrics *metrics.Metrics
	stats   statsInvalidator
	window  time.Duration
}

// NewTaskService wires the lifecycle engine. m and stats may be nil.
func NewTaskService(lists *repository.TaskListRepository, tasks *repository.TaskRepository, m *metrics.Metrics, stats statsInvalidator, window time.Duration) *TaskService {
	if window <= 0 {
		window = DefaultCompletionWindow
	}
	return &TaskService{lists: lists, tasks: tasks, metrics: m, stats: stats, window: window}
}

// CompletionWindow is the time allowed to finish a list.
func (s *TaskService) CompletionWindow() time.Duration {
	return s.window
}

// SubmitList stores a list and its non-blank tasks in submission order.
// The list is assigned to who only when who is authenticated.
func (s *TaskService) SubmitList(ctx context.Context, who session.Identity, input SubmitInput) (*model.TaskList, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("list name is required")
	}
	if len(input.TaskNames) > session.MaxTasks {
		return nil, invalid("a list holds at most %d tasks", session.MaxTasks)
	}

	names := make([]string, 0, len(input.TaskNames))
	for _, n := range input.TaskNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, invalid("at least one task is required")
	}

	list := model.TaskList{
		Name:             name,
		Description:      strings.TrimSpace(input.Description),
		CompletionStatus: model.ListPending,
	}
	if who.Authenticated {
		owner := who.UserID
		list.AssignedUser = &owner
	}

	if err := s.lists.CreateWithTasks(ctx, &list, names); err != nil {
		return nil, storageErr("submit list", err)
	}

	s.metrics.ListSubmitted(list.AssignedUser != nil)
	s.invalidate(ctx, list.AssignedUser)
	log.Printf("[info] list submitted id=%d tasks=%d owner=%s", list.ID, len(names), ownerLabel(list.AssignedUser))
	return &list, nil
}

// CompleteTask stamps the task done at completedAt. Repeating it moves the stamp.
// Tasks of a finished list are frozen.
func (s *TaskService) CompleteTask(ctx context.Context, who session.Identity, taskID uint, completedAt time.Time) error {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return storageErr("find task", err)
	}
	list, err := s.ownedList(ctx, who, task.ListID)
	if err != nil {
		return err
	}
	if list.CompletionStatus.Terminal() {
		return fmt.Errorf("complete task %d: list %d is %s: %w", taskID, list.ID, list.CompletionStatus, ErrInvalidTransition)
	}

	if err := s.tasks.MarkCompleted(ctx, task.ID, completedAt.UTC()); err != nil {
		return storageErr("complete task", err)
	}

	s.metrics.TaskCompleted()
	s.invalidate(ctx, list.AssignedUser)
	log.Printf("[info] task completed id=%d list=%d", task.ID, list.ID)
	return nil
}

// CompleteList marks the list completed at completedAt and returns its summary.
// Completing an already completed list re-stamps it; a failed list cannot be completed.
func (s *TaskService) CompleteList(ctx context.Context, who session.Identity, listID uint, completedAt time.Time) (*Summary, error) {
	list, err := s.ownedList(ctx, who, listID)
	if err != nil {
		return nil, err
	}
	if list.CompletionStatus == model.ListFailed {
		return nil, fmt.Errorf("complete list %d: %w", listID, ErrInvalidTransition)
	}

	if err := s.lists.MarkCompleted(ctx, list.ID, completedAt.UTC()); err != nil {
		return nil, storageErr("complete list", err)
	}

	if list.CompletionStatus == model.ListPending {
		s.metrics.ListFinished(model.ListCompleted)
	}
	s.invalidate(ctx, list.AssignedUser)
	log.Printf("[info] list completed id=%d", list.ID)

	return s.GetSummary(ctx, who, list.ID)
}

// FailList marks the list failed without touching its tasks. Failing a failed list is a no-op.
func (s *TaskService) FailList(ctx context.Context, who session.Identity, listID uint) error {
	list, err := s.ownedList(ctx, who, listID)
	if err != nil {
		return err
	}
	switch list.CompletionStatus {
	case model.ListFailed:
		return nil
	case model.ListCompleted:
		return fmt.Errorf("fail list %d: %w", listID, ErrInvalidTransition)
	}

	if err := s.lists.MarkFailed(ctx, list.ID); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return s.failedMeanwhile(ctx, list.ID)
		}
		return storageErr("fail list", err)
	}

	s.metrics.ListFinished(model.ListFailed)
	s.invalidate(ctx, list.AssignedUser)
	log.Printf("[info] list failed id=%d", list.ID)
	return nil
}

// failedMeanwhile resolves a lost race on FailList: a list failed by someone else is a no-op.
func (s *TaskService) failedMeanwhile(ctx context.Context, listID uint) error {
	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		return storageErr("find list", err)
	}
	if list.CompletionStatus == model.ListFailed {
		return nil
	}
	return fmt.Errorf("fail list %d: %w", listID, ErrInvalidTransition)
}

// GetSummary loads the list, its tasks and its owner concurrently.
// Editable is true only for the authenticated owner.
func (s *TaskService) GetSummary(ctx context.Context, who session.Identity, listID uint) (*Summary, error) {
	var (
		list  *model.TaskList
		tasks []model.Task
		owner = GuestOwner()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.lists.FindByID(gctx, listID)
		return storageErr("find list", err)
	})
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.ListByList(gctx, listID)
		return storageErr("list tasks", err)
	})
	g.Go(func() error {
		user, err := s.lists.FindOwner(gctx, listID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil
		case err != nil:
			return storageErr("find owner", err)
		}
		owner = KnownOwner(user)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		List:     *list,
		Tasks:    make([]TaskSummary, 0, len(tasks)),
		Owner:    owner,
		Editable: !owner.Guest && who.Owns(owner.ID),
	}
	for _, t := range tasks {
		summary.Tasks = append(summary.Tasks, summarizeTask(t))
	}
	return summary, nil
}

// DeleteList removes a list owned by the authenticated caller.
func (s *TaskService) DeleteList(ctx context.Context, who session.Identity, listID uint) error {
	if !who.Authenticated {
		return ErrAuthenticationRequired
	}
	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		return storageErr("find list", err)
	}
	if list.AssignedUser == nil || !who.Owns(*list.AssignedUser) {
		return ErrAuthorizationDenied
	}

	if err := s.lists.Delete(ctx, list.ID); err != nil {
		return storageErr("delete list", err)
	}

	s.invalidate(ctx, list.AssignedUser)
	log.Printf("[info] list deleted id=%d user=%d", list.ID, who.UserID)
	return nil
}

// ExpireStale fails every pending list older than the completion window and returns how many.
func (s *TaskService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.lists.ExpirePending(ctx, now.UTC().Add(-s.window))
	if err != nil {
		return 0, storageErr("expire lists", err)
	}

	seen := make(map[uint]bool)
	for _, l := range expired {
		if l.AssignedUser != nil && !seen[*l.AssignedUser] {
			seen[*l.AssignedUser] = true
			s.invalidate(ctx, l.AssignedUser)
		}
	}
	s.metrics.ListsExpired(len(expired))
	if len(expired) > 0 {
		log.Printf("[info] expired %d pending lists", len(expired))
	}
	return len(expired), nil
}

// ownedList loads the list and checks who may change it. Guest lists are open to any caller.
func (s *TaskService) ownedList(ctx context.Context, who session.Identity, listID uint) (*model.TaskList, error) {
	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		return nil, storageErr("find list", err)
	}
	if list.AssignedUser == nil {
		return list, nil
	}
	if !who.Authenticated {
		return nil, ErrAuthenticationRequired
	}
	if !who.Owns(*list.AssignedUser) {
		return nil, ErrAuthorizationDenied
	}
	return list, nil
}

func (s *TaskService) invalidate(ctx context.Context, userID *uint) {
	if s.stats == nil || userID == nil {
		return
	}
	s.stats.Invalidate(ctx, *userID)
}

func summarizeTask(t model.Task) TaskSummary {
	ts := TaskSummary{
		ID:               t.ID,
		Name:             t.Name,
		CompletionStatus: t.CompletionStatus,
		CreatedAt:        t.CreatedAt,
		CompletedAt:      t.CompletionDatetime,
	}
	if d := t.Duration(); d != nil {
		secs := d.Seconds()
		ts.DurationSeconds = &secs
	}
	return ts
}

func ownerLabel(userID *uint) string {
	if userID == nil {
		return "guest"
	}
	return fmt.Sprintf("%d", *userID)
}
