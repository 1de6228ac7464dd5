package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:30", "0 30 9 * * *", false},
		{"0:00", "0 0 0 * * *", false},
		{"23:59", "0 59 23 * * *", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"12:3:4", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScheduler_Register(t *testing.T) {
	s := NewSchedulerService(context.Background(), time.UTC, time.Second)
	noop := func(context.Context) error { return nil }

	_, err := s.ScheduleDaily("digest", "08:00", noop)
	require.NoError(t, err)
	_, err = s.ScheduleInterval("sweep", 5*time.Minute, noop)
	require.NoError(t, err)

	_, err = s.ScheduleInterval("broken", 0, noop)
	assert.Error(t, err)
	_, err = s.ScheduleDaily("broken", "25:00", noop)
	assert.Error(t, err)

	assert.Equal(t, 2, s.Len())
}

func TestScheduler_WrapBoundsContext(t *testing.T) {
	s := NewSchedulerService(context.Background(), time.UTC, time.Minute)

	var deadline bool
	s.wrap("probe", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return errors.New("logged, not returned")
	})()
	assert.True(t, deadline)
}

func TestScheduler_WrapSkipsAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSchedulerService(ctx, time.UTC, 0)
	cancel()

	called := false
	s.wrap("probe", func(context.Context) error {
		called = true
		return nil
	})()
	assert.False(t, called)
}
