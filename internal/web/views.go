package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"beefsteak/internal/model"
	"beefsteak/internal/service"
)

// page is the envelope every view is rendered in.
type page struct {
	View string      `json:"view"`
	Data interface{} `json:"data,omitempty"`
}

func render(c *fiber.Ctx, view string, data interface{}) error {
	return c.JSON(page{View: view, Data: data})
}

type inProgressView struct {
	List      model.TaskList        `json:"list_info"`
	Tasks     []service.TaskSummary `json:"task_info"`
	TaskNames []string              `json:"task_names_array"`
	Deadline  time.Time             `json:"deadline"`
}

type chartStats struct {
	Labels              []string  `json:"labels"`
	DailyTasksCompleted []int     `json:"daily_tasks_completed"`
	DailyActiveSeconds  []float64 `json:"daily_active_seconds"`
}

type profileView struct {
	User        model.User            `json:"user_data"`
	History     []model.TaskList      `json:"user_tasks"`
	Lifetime    service.LifetimeStats `json:"user_stats"`
	Chart       chartStats            `json:"chart_stats"`
	WeekTasks   int                   `json:"week_tasks_completed"`
	WeekSeconds float64               `json:"week_active_seconds"`
	Own         bool                  `json:"own_profile"`
}

func newProfileView(p *service.Profile, own bool) profileView {
	v := profileView{
		User:     p.User,
		History:  p.History,
		Lifetime: p.Stats.Lifetime,
		Chart:    newChartStats(p.Stats.Daily),
		Own:      own,
	}
	v.WeekTasks, v.WeekSeconds = p.Stats.WeekTotals()
	return v
}

func newChartStats(daily []service.DailyBucket) chartStats {
	chart := chartStats{
		Labels:              make([]string, 0, len(daily)),
		DailyTasksCompleted: make([]int, 0, len(daily)),
		DailyActiveSeconds:  make([]float64, 0, len(daily)),
	}
	for _, b := range daily {
		chart.Labels = append(chart.Labels, b.End.Format("Jan 2"))
		chart.DailyTasksCompleted = append(chart.DailyTasksCompleted, b.TasksCompleted)
		chart.DailyActiveSeconds = append(chart.DailyActiveSeconds, b.ActiveSeconds)
	}
	return chart
}
