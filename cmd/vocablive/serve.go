package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/koscakluka/vocablive/core/bot"
	"github.com/koscakluka/vocablive/core/rooms"
	"github.com/koscakluka/vocablive/core/rooms/daily"
	"github.com/koscakluka/vocablive/core/rooms/local"
	"github.com/koscakluka/vocablive/core/server"
	"github.com/koscakluka/vocablive/core/session"
	"github.com/koscakluka/vocablive/internal/config"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the session start API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTelemetry, err := setupTelemetry(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				shutdownTelemetry(shutdownCtx)
			}()

			return serve(ctx, cfg, flags.configPath)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, configPath string) error {
	var (
		provider   rooms.Provider
		serverOpts = []server.Option{server.WithCORSOrigins(cfg.Server.CORSOrigins)}
	)
	switch cfg.Rooms.Provider {
	case config.RoomProviderDaily:
		provider = daily.NewClient(cfg.Rooms.Daily.APIKey, daily.WithAPIURL(cfg.Rooms.Daily.APIURL))
	default:
		hub := local.NewHub(cfg.PublicURL())
		defer hub.Close()
		provider = hub
		serverOpts = append(serverOpts, server.WithRoomHandler(hub))
	}

	tracker := session.NewTracker()
	launcher, err := newLauncher(ctx, cfg, configPath, tracker)
	if err != nil {
		return err
	}

	orchestrator := session.NewOrchestrator(provider, launcher,
		session.WithRoomDuration(cfg.Rooms.Duration),
		session.WithMaxParticipants(cfg.Rooms.MaxParticipants),
		session.WithDefaultWords(cfg.Session.DefaultWords),
		session.WithBotName(cfg.Session.BotName),
	)

	err = server.New(orchestrator, serverOpts...).ListenAndServe(ctx, cfg.Addr())

	if canceled := tracker.CancelAll(); canceled > 0 {
		waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if !tracker.Wait(waitCtx) {
			fmt.Fprintf(os.Stderr, "%d sessions did not stop in time\n", tracker.Count())
		}
	}
	return err
}

func newLauncher(ctx context.Context, cfg *config.Config, configPath string, tracker *session.Tracker) (session.Launcher, error) {
	if cfg.Session.Launcher == config.LauncherTask {
		runner, err := newRunner(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return bot.NewTaskLauncher(runner, tracker), nil
	}

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		if err := os.Setenv(configEnv, absPath); err != nil {
			return nil, err
		}
	}
	return session.NewProcessLauncher()
}
