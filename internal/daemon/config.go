// Package daemon manages the PlanCoach daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/plancoach/plancoach/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	API           APIConfig           `toml:"api"`
	Data          DataConfig          `toml:"data"`
	Streak        StreakConfig        `toml:"streak"`
	Notifications NotificationsConfig `toml:"notifications"`
	Telemetry     TelemetryConfig     `toml:"telemetry"`
	Logging       LoggingConfig       `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DataConfig controls where state lives.
type DataConfig struct {
	Dir string `toml:"dir"`
}

// StreakConfig controls day-boundary handling.
type StreakConfig struct {
	// Timezone is an IANA name like "Europe/Berlin". Empty means the
	// system's local zone. Day boundaries follow this zone.
	Timezone string `toml:"timezone"`
}

// NotificationsConfig controls the in-app notification queue.
type NotificationsConfig struct {
	Enabled    bool   `toml:"enabled"`
	MaxPerDay  int    `toml:"max_per_day"`
	QuietStart string `toml:"quiet_start"`
	QuietEnd   string `toml:"quiet_end"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := plancoachHome()
	policy := domain.DefaultNotificationPolicy()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        7600,
			CORSOrigins: []string{"*"},
		},
		Data: DataConfig{
			Dir: homeDir,
		},
		Streak: StreakConfig{
			Timezone: "",
		},
		Notifications: NotificationsConfig{
			Enabled:    true,
			MaxPerDay:  policy.MaxPerDay,
			QuietStart: policy.QuietStart,
			QuietEnd:   policy.QuietEnd,
		},
		Telemetry: TelemetryConfig{
			Prometheus: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "plancoach.log"),
		},
	}
}

// LoadConfig reads config from ~/.plancoach/config.toml, falling back to
// defaults when the file does not exist.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(plancoachHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.plancoach/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(plancoachHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Location resolves the configured streak timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Streak.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Streak.Timezone)
	if err != nil {
		return nil, fmt.Errorf("streak timezone: %w", err)
	}
	return loc, nil
}

// NotificationPolicy converts the config section into a policy.
func (c Config) NotificationPolicy() domain.NotificationPolicy {
	return domain.NotificationPolicy{
		MaxPerDay:  c.Notifications.MaxPerDay,
		QuietStart: c.Notifications.QuietStart,
		QuietEnd:   c.Notifications.QuietEnd,
	}
}

// plancoachHome returns the PlanCoach data directory.
func plancoachHome() string {
	if env := os.Getenv("PLANCOACH_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".plancoach")
}

// PlancoachHome is exported for use by other packages.
func PlancoachHome() string {
	return plancoachHome()
}
