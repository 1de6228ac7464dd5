package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beefsteak/internal/model"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0s", FormatSeconds(0))
	assert.Equal(t, "42s", FormatSeconds(42.2))
	assert.Equal(t, "1m30s", FormatSeconds(90))
	assert.Equal(t, "25m00s", FormatSeconds(1500))
	assert.Equal(t, "2h05m", FormatSeconds(7500))
}

func TestFormatDigest(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	user := model.User{UserName: "<alice>"}

	daily := make([]DailyBucket, WindowDays)
	for i := range daily {
		offset := WindowDays - 1 - i
		end := now.AddDate(0, 0, -offset)
		daily[i] = DailyBucket{DayOffset: offset, Start: end.AddDate(0, 0, -1), End: end}
	}
	daily[WindowDays-1].TasksCompleted = 2
	daily[WindowDays-1].ActiveSeconds = 900

	text := FormatDigest(user, ProfileStats{
		Lifetime: LifetimeStats{CreatedCount: 3, CompletedCount: 2, CompletionPercentage: 67},
		Daily:    daily,
	}, now)

	assert.Contains(t, text, "&lt;alice&gt;")
	assert.Contains(t, text, "10.03.2024")
	assert.Contains(t, text, "2 of 3 lists completed (67%)")
	assert.Contains(t, text, "Last 24h: 2 tasks · 15m00s")
	assert.Contains(t, text, "Week: 2 tasks in 15m00s")
}

func TestFormatDigest_NoLists(t *testing.T) {
	text := FormatDigest(model.User{UserName: "bob"}, ProfileStats{}, time.Now())
	assert.Contains(t, text, "No lists yet")
	assert.Contains(t, text, "Week: 0 tasks in 0s")
}

func TestDigest(t *testing.T) {
	f := newFixture(t)
	alice := f.signedIn(t, "alice")
	now := time.Now().UTC()
	f.seedList(t, alice.UserID, now.Add(-time.Hour), []string{"a"}, 2*time.Minute)

	user, err := f.users.FindByID(context.Background(), alice.UserID)
	require.NoError(t, err)

	text, err := NewReminderService(f.stats).Digest(context.Background(), *user, now)
	require.NoError(t, err)
	assert.Contains(t, text, "0 of 1 lists completed (0%)")
	assert.Contains(t, text, "Last 24h: 1 tasks · 2m00s")
}
