package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"beefsteak/internal/bot"
)

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.tasks.ExpireStale(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "expired %d pending lists\n", n)
	return nil
}

func runDigest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.TelegramToken == "" {
		return errors.New("digest: TELEGRAM_TOKEN is not set")
	}
	telegramBot, err := bot.New(a.cfg.TelegramToken, a.accounts, a.reminders, a.cfg.PublicURL)
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	return telegramBot.SendDailyReports(ctx)
}
