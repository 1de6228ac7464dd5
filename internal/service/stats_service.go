package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"beefsteak/internal/model"
	"beefsteak/internal/repository"
)

// WindowDays is the number of daily buckets in a profile.
const WindowDays = 7

// LifetimeStats summarises every list a user ever created.
type LifetimeStats struct {
	CreatedCount         int64 `json:"created_count"`
	CompletedCount       int64 `json:"completed_count"`
	CompletionPercentage int   `json:"completion_percentage"`
}

// DailyBucket aggregates the completed tasks created in [Start, End).
// DayOffset 0 is the trailing 24 hours, 6 the oldest.
type DailyBucket struct {
	DayOffset      int       `json:"day_offset"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	TasksCompleted int       `json:"tasks_completed"`
	ActiveSeconds  float64   `json:"active_seconds"`
}

// ProfileStats is what the profile page and the digest show.
type ProfileStats struct {
	Lifetime LifetimeStats `json:"lifetime"`
	Daily    []DailyBucket `json:"daily"`
}

// WeekTotals sums the daily buckets.
func (p ProfileStats) WeekTotals() (tasks int, seconds float64) {
	for _, b := range p.Daily {
		tasks += b.TasksCompleted
		seconds += b.ActiveSeconds
	}
	return tasks, seconds
}

// Profile is a user with their history and statistics.
type Profile struct {
	User    model.User       `json:"user"`
	History []model.TaskList `json:"history"`
	Stats   ProfileStats     `json:"stats"`
}

// Cache is the store used for cache-aside reads of profile statistics.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// StatsService computes completion statistics.
type StatsService struct {
	users *repository.UserRepository
	lists *repository.TaskListRepository
	tasks *repository.TaskRepository
	cache Cache
}

// NewStatsService creates the aggregator. cache may be nil.
func NewStatsService(users *repository.UserRepository, lists *repository.TaskListRepository, tasks *repository.TaskRepository, cache Cache) *StatsService {
	return &StatsService{users: users, lists: lists, tasks: tasks, cache: cache}
}

// LifetimeStats counts created and completed lists. A user with no lists gets 0%.
func (s *StatsService) LifetimeStats(ctx context.Context, userID uint) (LifetimeStats, error) {
	counts, err := s.lists.CountByUser(ctx, userID)
	if err != nil {
		return LifetimeStats{}, storageErr("count lists", err)
	}
	return LifetimeStats{
		CreatedCount:         counts.Created,
		CompletedCount:       counts.Completed,
		CompletionPercentage: percentage(counts.Completed, counts.Created),
	}, nil
}

// DailyWindow returns WindowDays buckets, oldest first, each covering 24 hours ending
// ref minus DayOffset days. Days without activity are zero buckets.
func (s *StatsService) DailyWindow(ctx context.Context, userID uint, ref time.Time) ([]DailyBucket, error) {
	ref = ref.UTC()
	buckets := make([]DailyBucket, WindowDays)

	g, gctx := errgroup.WithContext(ctx)
	for i := range buckets {
		offset := WindowDays - 1 - i
		end := ref.AddDate(0, 0, -offset)
		start := end.AddDate(0, 0, -1)
		buckets[i] = DailyBucket{DayOffset: offset, Start: start, End: end}

		b := &buckets[i]
		g.Go(func() error {
			tasks, err := s.tasks.CompletedInWindow(gctx, userID, b.Start, b.End)
			if err != nil {
				return storageErr(fmt.Sprintf("daily window %d", b.DayOffset), err)
			}
			for _, t := range tasks {
				b.TasksCompleted++
				if d := t.Duration(); d != nil {
					b.ActiveSeconds += d.Seconds()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buckets, nil
}

// ProfileStats returns lifetime and daily statistics, served from the cache when present.
func (s *StatsService) ProfileStats(ctx context.Context, userID uint, ref time.Time) (*ProfileStats, error) {
	key := statsKey(userID)
	if s.cache != nil {
		var cached ProfileStats
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[warn] stats cache get user=%d: %v", userID, err)
		} else if found {
			return &cached, nil
		}
	}

	var stats ProfileStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Lifetime, err = s.LifetimeStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Daily, err = s.DailyWindow(gctx, userID, ref)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats); err != nil {
			log.Printf("[warn] stats cache set user=%d: %v", userID, err)
		}
	}
	return &stats, nil
}

// Profile loads the user, their list history and their statistics.
func (s *StatsService) Profile(ctx context.Context, userID uint, ref time.Time) (*Profile, error) {
	var profile Profile

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := s.users.FindByID(gctx, userID)
		if err != nil {
			return storageErr("find user", err)
		}
		profile.User = *user
		return nil
	})
	g.Go(func() error {
		history, err := s.lists.ListByUser(gctx, userID)
		if err != nil {
			return storageErr("list history", err)
		}
		profile.History = history
		return nil
	})
	g.Go(func() error {
		stats, err := s.ProfileStats(gctx, userID, ref)
		if err != nil {
			return err
		}
		profile.Stats = *stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Invalidate drops cached statistics for userID.
func (s *StatsService) Invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsKey(userID)); err != nil {
		log.Printf("[warn] stats cache delete user=%d: %v", userID, err)
	}
}

func statsKey(userID uint) string {
	return fmt.Sprintf("stats:%d", userID)
}

func percentage(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
