package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/induction/internal/alert"
	"github.com/zulandar/induction/internal/alert/discord"
	"github.com/zulandar/induction/internal/alert/slack"
	"github.com/zulandar/induction/internal/auth"
	"github.com/zulandar/induction/internal/config"
	"github.com/zulandar/induction/internal/dashboard"
	"github.com/zulandar/induction/internal/storage"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Induction web app",
		Long: `Launches the ranklist web app: login, train detail and edit, upload and
import, chat assistant, certificate extraction and CSV report.
Run "induct alerts watch" separately for certificate expiry alerts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	dispatcher, err := buildDispatcher(cfg.Alerts)
	if err != nil {
		return err
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:       gormDB,
		Port:     port,
		Out:      cmd.OutOrStdout(),
		Codec:    auth.NewCodec(cfg.Server.SessionSecret, cfg.Server.SessionTTL),
		Provider: identityProvider(cfg.Auth, gormDB),
		Store:    store,
		Alerts:   dispatcher,
	})
}

// identityProvider returns the login backend selected in config.
func identityProvider(cfg config.AuthConfig, gormDB *gorm.DB) auth.IdentityProvider {
	if cfg.Provider == "profile" {
		return auth.ProfileProvider{DB: gormDB}
	}
	return auth.MockProvider{}
}

// buildDispatcher wires every chat notifier enabled in config. The result
// is non-nil even when nothing is enabled.
func buildDispatcher(cfg config.AlertsConfig) (*alert.Dispatcher, error) {
	var notifiers []alert.Notifier
	if cfg.Slack.Enabled() {
		n, err := slack.New(slack.Opts{BotToken: cfg.Slack.BotToken, ChannelID: cfg.Slack.ChannelID})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Discord.Enabled() {
		n, err := discord.New(discord.Opts{BotToken: cfg.Discord.BotToken, ChannelID: cfg.Discord.ChannelID})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return alert.NewDispatcher(notifiers...), nil
}
