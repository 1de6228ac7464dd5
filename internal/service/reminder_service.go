package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"beefsteak/internal/model"
)

// ReminderService builds human-readable progress digests for chat notifications.
type ReminderService struct {
	stats *StatsService
}

func NewReminderService(stats *StatsService) *ReminderService {
	return &ReminderService{stats: stats}
}

// Digest renders the user's lifetime numbers and the last seven days as Telegram HTML.
func (s *ReminderService) Digest(ctx context.Context, user model.User, now time.Time) (string, error) {
	stats, err := s.stats.ProfileStats(ctx, user.ID, now)
	if err != nil {
		return "", err
	}
	return FormatDigest(user, *stats, now), nil
}

// FormatDigest renders stats without touching storage.
func FormatDigest(user model.User, stats ProfileStats, now time.Time) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Progress for %s</b>\n", html.EscapeString(user.UserName)))
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	lt := stats.Lifetime
	if lt.CreatedCount == 0 {
		builder.WriteString("✅ No lists yet. Start one and beat the clock!\n")
	} else {
		builder.WriteString(fmt.Sprintf("✅ %d of %d lists completed (%d%%)\n",
			lt.CompletedCount, lt.CreatedCount, lt.CompletionPercentage))
	}

	builder.WriteString("\n📊 <b>Last 7 days</b>\n")
	for _, b := range stats.Daily {
		builder.WriteString(formatBucket(b))
	}

	tasks, seconds := stats.WeekTotals()
	builder.WriteString(fmt.Sprintf("\n🔥 Week: %d tasks in %s", tasks, FormatSeconds(seconds)))
	return strings.TrimSpace(builder.String())
}

func formatBucket(b DailyBucket) string {
	label := b.End.Format("Mon 02.01")
	if b.DayOffset == 0 {
		label = "Last 24h"
	}
	if b.TasksCompleted == 0 {
		return fmt.Sprintf("▫️ %s: -\n", label)
	}
	return fmt.Sprintf("▪️ %s: %d tasks · %s\n", label, b.TasksCompleted, FormatSeconds(b.ActiveSeconds))
}

// FormatSeconds prints a duration as minutes and seconds, or hours and minutes past an hour.
func FormatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
