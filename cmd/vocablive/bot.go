package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/koscakluka/vocablive/core/bot"
	"github.com/koscakluka/vocablive/core/engine/gemini"
	"github.com/koscakluka/vocablive/core/session"
	"github.com/koscakluka/vocablive/core/transport"
	"github.com/koscakluka/vocablive/internal/config"
	"github.com/spf13/cobra"
)

func newBotCommand(flags *rootFlags) *cobra.Command {
	var args session.Args

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run one conversation in a room",
		Long:  "Joins the room as the conversation bot and runs a single practice session until it ends.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			sc, err := args.Context(cfg.Session.DefaultWords)
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

			runner, err := newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			return runner.Run(ctx, sc)
		},
	}
	args.BindFlags(cmd.Flags())
	return cmd
}

func newRunner(ctx context.Context, cfg *config.Config) (*bot.Runner, error) {
	var engineOpts []gemini.Option
	if cfg.Engine.Model != "" {
		engineOpts = append(engineOpts, gemini.WithModel(cfg.Engine.Model))
	}
	eng, err := gemini.New(ctx, cfg.Engine.APIKey, engineOpts...)
	if err != nil {
		return nil, err
	}

	dialerOpts := []transport.DialerOption{transport.WithName(cfg.Session.BotName)}
	if cfg.Rooms.Provider == config.RoomProviderDaily && cfg.Rooms.Daily.BridgeURL != "" {
		dialerOpts = append(dialerOpts, transport.WithBridgeURL(cfg.Rooms.Daily.BridgeURL))
	}

	return bot.NewRunner(transport.NewDialer(dialerOpts...), eng, bot.WithVoice(cfg.Engine.Voice)), nil
}
