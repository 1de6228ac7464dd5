package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron    *cron.Cron
	ctx     context.Context
	timeout time.Duration
}

// NewSchedulerService runs jobs in loc. Each run gets a context derived from ctx
// and bounded by timeout; zero means no bound.
func NewSchedulerService(ctx context.Context, loc *time.Location, timeout time.Duration) *SchedulerService {
	return &SchedulerService{
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:     ctx,
		timeout: timeout,
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job Job) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, s.wrap(name, job))
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job Job) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	// Convert to cron spec: every N seconds.
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddFunc(spec, s.wrap(name, job))
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Len is the number of registered jobs.
func (s *SchedulerService) Len() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) wrap(name string, job Job) func() {
	return func() {
		if s.ctx.Err() != nil {
			return
		}
		ctx, cancel := s.ctx, context.CancelFunc(func() {})
		if s.timeout > 0 {
			ctx, cancel = context.WithTimeout(s.ctx, s.timeout)
		}
		defer cancel()
		if err := job(ctx); err != nil {
			log.Printf("[warn] job %s: %v", name, err)
		}
	}
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
