// Package config loads service configuration from a YAML file, .env files
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/koscakluka/vocablive/core/words"
	"gopkg.in/yaml.v3"
)

const (
	RoomProviderLocal = "local"
	RoomProviderDaily = "daily"

	LauncherProcess = "process"
	LauncherTask    = "task"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Rooms     RoomsConfig     `yaml:"rooms"`
	Engine    EngineConfig    `yaml:"engine"`
	Session   SessionConfig   `yaml:"session"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PublicURL is the address clients reach the server on. Local rooms are
	// served under it.
	PublicURL   string   `yaml:"public_url"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type RoomsConfig struct {
	Provider        string        `yaml:"provider"`
	Duration        time.Duration `yaml:"duration"`
	MaxParticipants int           `yaml:"max_participants"`
	Daily           DailyConfig   `yaml:"daily"`
}

type DailyConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
	// BridgeURL is a websocket bridge that carries session media in and out
	// of Daily rooms.
	BridgeURL string `yaml:"bridge_url"`
}

type EngineConfig struct {
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice"`
	APIKey string `yaml:"api_key"`
}

type SessionConfig struct {
	Launcher     string   `yaml:"launcher"`
	DefaultWords []string `yaml:"default_words"`
	BotName      string   `yaml:"bot_name"`
}

type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	Traces      bool   `yaml:"traces"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"*"},
		},
		Rooms: RoomsConfig{
			Provider:        RoomProviderLocal,
			Duration:        10 * time.Minute,
			MaxParticipants: 2,
			Daily: DailyConfig{
				APIURL: "https://api.daily.co/v1",
			},
		},
		Engine: EngineConfig{
			Voice: "Charon",
		},
		Session: SessionConfig{
			Launcher:     LauncherProcess,
			DefaultWords: words.DefaultTargetWords(),
			BotName:      "Chatbot",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "vocablive",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	overrides := map[string]*string{
		"GOOGLE_API_KEY":          &c.Engine.APIKey,
		"GEMINI_VOICE_ID":         &c.Engine.Voice,
		"GEMINI_MODEL":            &c.Engine.Model,
		"DAILY_API_KEY":           &c.Rooms.Daily.APIKey,
		"DAILY_API_URL":           &c.Rooms.Daily.APIURL,
		"DAILY_BRIDGE_URL":        &c.Rooms.Daily.BridgeURL,
		"VOCABLIVE_ROOM_PROVIDER": &c.Rooms.Provider,
		"VOCABLIVE_PUBLIC_URL":    &c.Server.PublicURL,
		"VOCABLIVE_LAUNCHER":      &c.Session.Launcher,
	}
	for key, target := range overrides {
		if value, ok := lookup(key); ok && value != "" {
			*target = value
		}
	}

	if value, ok := lookup("PORT"); ok && value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", value, err)
		}
		c.Server.Port = port
	}

	return nil
}

// PublicURL is the configured public address, or the listen address when
// none is configured.
func (c *Config) PublicURL() string {
	if c.Server.PublicURL != "" {
		return strings.TrimRight(c.Server.PublicURL, "/")
	}

	host := c.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports every invalid or missing setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}

	switch c.Rooms.Provider {
	case RoomProviderLocal:
	case RoomProviderDaily:
		if c.Rooms.Daily.APIKey == "" {
			errs = append(errs, errors.New("DAILY_API_KEY is required for the daily room provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown room provider %q", c.Rooms.Provider))
	}
	if c.Rooms.Duration <= 0 {
		errs = append(errs, errors.New("rooms.duration must be positive"))
	}
	if c.Rooms.MaxParticipants < 2 {
		errs = append(errs, errors.New("rooms.max_participants must allow the learner and the bot"))
	}

	switch c.Session.Launcher {
	case LauncherProcess, LauncherTask:
	default:
		errs = append(errs, fmt.Errorf("unknown session launcher %q", c.Session.Launcher))
	}
	if len(words.Normalize(c.Session.DefaultWords)) == 0 {
		errs = append(errs, errors.New("session.default_words must not be empty"))
	}

	if c.Engine.APIKey == "" {
		errs = append(errs, errors.New("GOOGLE_API_KEY is required"))
	}

	return errors.Join(errs...)
}
