package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"serve", "bot", "watch"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("expected %s command, got error: %v", name, err)
		}
		if cmd.Name() != name {
			t.Fatalf("expected %s command, got %s", name, cmd.Name())
		}
	}
}

func TestBotCommandBindsLaunchFlags(t *testing.T) {
	cmd, _, err := newRootCommand().Find([]string{"bot"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, shorthand := range []string{"u", "t", "w", "s"} {
		if cmd.Flags().ShorthandLookup(shorthand) == nil {
			t.Fatalf("expected -%s flag", shorthand)
		}
	}
}

func TestLoadLayersFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\nsession:\n  bot_name: Sensei\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("GOOGLE_API_KEY", "key")
	t.Setenv("PORT", "9100")

	flags := &rootFlags{configPath: path, envFiles: []string{filepath.Join(dir, "missing.env")}}
	cfg, err := flags.load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Session.BotName != "Sensei" {
		t.Fatalf("expected bot name Sensei, got %q", cfg.Session.BotName)
	}
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")

	flags := &rootFlags{envFiles: []string{filepath.Join(t.TempDir(), "missing.env")}}
	_, err := flags.load()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "GOOGLE_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}
