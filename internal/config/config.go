// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config is the root configuration for the Palward panel process.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Game      GameConfig      `koanf:"game"`
	RestAPI   RestAPIConfig   `koanf:"restapi"`
	Database  DatabaseConfig  `koanf:"database"`
	Presence  PresenceConfig  `koanf:"presence"`
	Lifecycle LifecycleConfig `koanf:"lifecycle"`
	Backup    BackupConfig    `koanf:"backup"`
	Restart   RestartConfig   `koanf:"restart"`
	Notify    NotifyConfig    `koanf:"notify"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the panel's own HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// GameConfig locates the managed game-server executable and its files.
type GameConfig struct {
	// ExecutablePath is the full path to the dedicated server binary.
	ExecutablePath string `koanf:"executable_path"`

	// Args are passed to the executable on launch.
	Args []string `koanf:"args"`

	// WorkingDir is the launch working directory.
	// Empty means the executable's own directory.
	WorkingDir string `koanf:"working_dir"`

	// ProcessName is the image name used for OS process matching,
	// compared case-insensitively. Empty means the executable's base name.
	ProcessName string `koanf:"process_name"`

	// SettingsPath is the PalWorldSettings.ini location.
	SettingsPath string `koanf:"settings_path"`
}

// RestAPIConfig configures the game server's REST control API endpoint.
type RestAPIConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	Username     string        `koanf:"username"`
	Password     string        `koanf:"password"`
	PollInterval time.Duration `koanf:"poll_interval"`
	Timeout      time.Duration `koanf:"timeout"`
}

// BaseURL returns the REST API root, e.g. http://127.0.0.1:8212.
func (c *RestAPIConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// DatabaseConfig configures the session store.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// PresenceConfig configures presence tracking and its legacy flat files.
type PresenceConfig struct {
	// DataDir holds the database, legacy flat files, and the panel log.
	DataDir string `koanf:"data_dir"`
}

// PlayerListFile is the legacy newline-delimited ever-connected list.
func (c *PresenceConfig) PlayerListFile() string {
	return filepath.Join(c.DataDir, "player_list.txt")
}

// PlaytimeFile is the legacy tab-separated cumulative playtime file.
func (c *PresenceConfig) PlaytimeFile() string {
	return filepath.Join(c.DataDir, "playtime.txt")
}

// PanelLogFile receives ring-log lines while the game server runs.
func (c *PresenceConfig) PanelLogFile() string {
	return filepath.Join(c.DataDir, "panel_server_log.txt")
}

// LifecycleConfig tunes the start/stop state machine timings.
type LifecycleConfig struct {
	// NoticeSeconds is the default graceful-shutdown warning period.
	NoticeSeconds int `koanf:"notice_seconds"`

	// SafetyMargin is added to a shutdown notice before the forced
	// fallback check fires.
	SafetyMargin time.Duration `koanf:"safety_margin"`

	// AnnounceDelay separates the stop-with-notice announcement from the
	// actual shutdown request, so players see the warning first.
	AnnounceDelay time.Duration `koanf:"announce_delay"`

	// StartRecheckDelay is the grace period before re-confirming that a
	// seemingly running process is actually running.
	StartRecheckDelay time.Duration `koanf:"start_recheck_delay"`

	// RestartWaitAPI / RestartWaitFallback are the stop-to-start gaps for
	// restart, depending on whether the REST API carried the stop.
	RestartWaitAPI      time.Duration `koanf:"restart_wait_api"`
	RestartWaitFallback time.Duration `koanf:"restart_wait_fallback"`

	// LogLines caps the in-memory ring log of process output.
	LogLines int `koanf:"log_lines"`
}

// BackupConfig configures save-directory snapshots.
type BackupConfig struct {
	// SavePath is the game's save directory; empty disables backups.
	SavePath string `koanf:"save_path"`

	// Root receives timestamped snapshot directories; empty disables.
	Root string `koanf:"root"`

	Interval time.Duration `koanf:"interval"`
	MaxAge   time.Duration `koanf:"max_age"`
}

// Enabled reports whether backups are configured at all.
func (c *BackupConfig) Enabled() bool {
	return c.SavePath != "" && c.Root != ""
}

// RestartConfig configures the scheduled daily restart.
type RestartConfig struct {
	DailyEnabled bool `koanf:"daily_enabled"`

	// DailyTime is the local wall-clock trigger, "HH:MM".
	DailyTime string `koanf:"daily_time"`

	// RecheckInterval is the deferral re-check period while players
	// remain online.
	RecheckInterval time.Duration `koanf:"recheck_interval"`
}

// NotifyConfig configures long-session announcements.
type NotifyConfig struct {
	Enabled       bool          `koanf:"enabled"`
	CheckInterval time.Duration `koanf:"check_interval"`
}

// SecurityConfig configures panel authentication.
type SecurityConfig struct {
	PanelPassword  string        `koanf:"panel_password"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
}

// LoggingConfig configures the zerolog pipeline.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would break the process
// at runtime. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Game.ExecutablePath == "" {
		return fmt.Errorf("game.executable_path must be set")
	}
	if c.RestAPI.Enabled {
		if c.RestAPI.Port < 1 || c.RestAPI.Port > 65535 {
			return fmt.Errorf("restapi.port %d out of range 1-65535", c.RestAPI.Port)
		}
		if c.RestAPI.PollInterval < time.Second {
			return fmt.Errorf("restapi.poll_interval %s below 1s minimum", c.RestAPI.PollInterval)
		}
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.Lifecycle.NoticeSeconds < 1 || c.Lifecycle.NoticeSeconds > 300 {
		return fmt.Errorf("lifecycle.notice_seconds %d out of range 1-300", c.Lifecycle.NoticeSeconds)
	}
	if c.Lifecycle.LogLines < 1 {
		return fmt.Errorf("lifecycle.log_lines must be positive")
	}
	if c.Restart.DailyEnabled {
		if _, err := ParseDailyTime(c.Restart.DailyTime); err != nil {
			return fmt.Errorf("restart.daily_time: %w", err)
		}
	}
	return nil
}

// ResolvedProcessName resolves the effective image name for process matching.
func (c *GameConfig) ResolvedProcessName() string {
	if c.ProcessName != "" {
		return c.ProcessName
	}
	base := filepath.Base(c.ExecutablePath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// ResolvedWorkingDir resolves the effective launch directory.
func (c *GameConfig) ResolvedWorkingDir() string {
	if c.WorkingDir != "" {
		return c.WorkingDir
	}
	return filepath.Dir(c.ExecutablePath)
}

// ParseDailyTime parses "HH:MM" into hour and minute.
func ParseDailyTime(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
