package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"beefsteak/internal/bot"
	"beefsteak/internal/identity"
	"beefsteak/internal/service"
	"beefsteak/internal/web"
)

const (
	jobTimeout      = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	if cfg.IdentitySecret == "" {
		log.Println("[warn] IDENTITY_SECRET is empty, identity cookies can be forged")
	}

	server := web.New(identity.NewVerifier(cfg.IdentitySecret), web.Services{
		Tasks:    a.tasks,
		Stats:    a.stats,
		Groups:   a.groups,
		Accounts: a.accounts,
	}, a.registry)

	scheduler := service.NewSchedulerService(ctx, time.Local, jobTimeout)
	if cfg.ExpireInterval > 0 {
		if _, err := scheduler.ScheduleInterval("expire", cfg.ExpireInterval, func(ctx context.Context) error {
			_, err := a.tasks.ExpireStale(ctx, time.Now())
			return err
		}); err != nil {
			return fmt.Errorf("schedule expiry: %w", err)
		}
	}

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, a.accounts, a.reminders, cfg.PublicURL)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		if err := scheduleDigest(scheduler, cfg.DigestTime, cfg.ReportInterval, telegramBot.SendDailyReports); err != nil {
			return err
		}
	} else {
		log.Println("[info] TELEGRAM_TOKEN not set, bot disabled")
	}

	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("[info] %d scheduled jobs", scheduler.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[info] listening on %s", cfg.ListenAddr)
		return server.Listen(cfg.ListenAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if telegramBot != nil {
		g.Go(func() error {
			return telegramBot.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("[info] shutdown complete")
	return nil
}

// scheduleDigest runs job daily at digestTime, or every interval when no time is set.
func scheduleDigest(scheduler *service.SchedulerService, digestTime string, interval time.Duration, job service.Job) error {
	switch {
	case digestTime != "":
		if _, err := scheduler.ScheduleDaily("digest", digestTime, job); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	case interval > 0:
		if _, err := scheduler.ScheduleInterval("digest", interval, job); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	}
	return nil
}
