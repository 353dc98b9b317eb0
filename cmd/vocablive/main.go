// Command vocablive serves vocabulary practice sessions: it creates rooms on
// request, runs the conversation bot in them and lets observers follow along.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/vocablive/core/server"
	"github.com/koscakluka/vocablive/internal/config"
	"github.com/koscakluka/vocablive/internal/telemetry"
	"github.com/spf13/cobra"
)

// configEnv carries the config path to session processes.
const configEnv = "VOCABLIVE_CONFIG"

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

type rootFlags struct {
	configPath string
	envFiles   []string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "vocablive",
		Short:         "Live voice sessions for vocabulary practice",
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv(configEnv), "path to a YAML config file")
	rootCmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, ".env files to load")

	rootCmd.AddCommand(
		newServeCommand(flags),
		newBotCommand(flags),
		newWatchCommand(),
	)
	return rootCmd
}

// load resolves the configuration from the config file, .env files and the
// environment.
func (f *rootFlags) load() (*config.Config, error) {
	if err := config.LoadDotEnv(f.envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func setupTelemetry(ctx context.Context, cfg *config.Config) (telemetry.ShutdownFunc, error) {
	return telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Traces:      cfg.Telemetry.Traces,
	})
}
