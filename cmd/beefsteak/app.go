package main

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"beefsteak/internal/cache"
	"beefsteak/internal/config"
	"beefsteak/internal/metrics"
	"beefsteak/internal/repository"
	"beefsteak/internal/service"
)

// app holds everything the commands share.
type app struct {
	cfg      config.Config
	db       *gorm.DB
	cache    *cache.Cache
	registry *prometheus.Registry

	tasks     *service.TaskService
	stats     *service.StatsService
	groups    *service.GroupService
	accounts  *service.AccountService
	reminders *service.ReminderService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	a := &app{cfg: cfg, db: db, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var statsCache service.Cache
	if cfg.RedisAddr != "" {
		c, err := cache.Dial(ctx, cfg.RedisAddr, "beefsteak:", cfg.StatsCacheTTL)
		if err != nil {
			log.Printf("[warn] stats cache disabled: %v", err)
		} else {
			a.cache = c
			statsCache = c
		}
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	listRepo := repository.NewTaskListRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	a.stats = service.NewStatsService(userRepo, listRepo, taskRepo, statsCache)
	a.tasks = service.NewTaskService(listRepo, taskRepo, metrics.New(a.registry), a.stats, cfg.CompletionWindow)
	a.groups = service.NewGroupService(groupRepo, userRepo, listRepo)
	a.accounts = service.NewAccountService(userRepo, 0)
	a.reminders = service.NewReminderService(a.stats)
	return a, nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Printf("[warn] close cache: %v", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
