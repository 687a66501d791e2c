package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/induction/internal/alert"
)

func newAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Certificate expiry alerts to Slack and Discord",
	}

	cmd.AddCommand(newAlertsSweepCmd())
	cmd.AddCommand(newAlertsWatchCmd())
	return cmd
}

func newAlertsSweepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Post one alert per expiring certificate, once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			d, err := buildDispatcher(cfg.Alerts)
			if err != nil {
				return err
			}
			if !d.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "No notifier configured; listing only.")
			}
			n, err := alert.Sweep(cmd.Context(), gormDB, d, time.Now(), cfg.Alerts.ExpiryWindow)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d certificate(s) expiring within %d days\n", n, cfg.Alerts.ExpiryWindow)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newAlertsWatchCmd() *cobra.Command {
	var (
		configPath string
		runNow     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sweep for expiring certificates on the configured schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			d, err := buildDispatcher(cfg.Alerts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching certificates on %q (window %d days)\n",
				cfg.Alerts.Schedule, cfg.Alerts.ExpiryWindow)
			return alert.Watch(ctx, alert.WatchOpts{
				DB:         gormDB,
				Dispatcher: d,
				Schedule:   cfg.Alerts.Schedule,
				WindowDays: cfg.Alerts.ExpiryWindow,
				RunNow:     runNow,
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&runNow, "now", false, "sweep immediately before the first scheduled tick")
	return cmd
}
