package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "beefsteak",
		Short:        "Timed task lists with per-user completion statistics",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $BEEFSTEAK_CONFIG)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(digestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server, the expiry sweeper and the Telegram bot",
		RunE:  runServe,
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Fail every pending list older than the completion window, once",
		RunE:  runSweep,
	}
}

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send the Telegram digest to every linked account, once",
		RunE:  runDigest,
	}
}
