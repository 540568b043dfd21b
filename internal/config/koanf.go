// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/palward/config.yaml",
	"/etc/palward/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults are
// layered first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3000,
			Timeout: 30 * time.Second,
		},
		Game: GameConfig{
			ExecutablePath: `C:\Program Files (x86)\Steam\steamapps\common\PalServer\PalServer.exe`,
			Args: []string{
				"-log", "-stdlog", "-useperfthreads",
				"-NoAsyncLoadingThread", "-UseMultithreadForDS",
			},
			WorkingDir:   "",
			ProcessName:  "PalServer",
			SettingsPath: `C:\Program Files (x86)\Steam\steamapps\common\PalServer\Pal\Saved\Config\WindowsServer\PalWorldSettings.ini`,
		},
		RestAPI: RestAPIConfig{
			Enabled:      true,
			Host:         "127.0.0.1",
			Port:         8212,
			Username:     "admin",
			Password:     "",
			PollInterval: 5 * time.Second,
			Timeout:      3 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "data/palward.db",
		},
		Presence: PresenceConfig{
			DataDir: "data",
		},
		Lifecycle: LifecycleConfig{
			NoticeSeconds:       30,
			SafetyMargin:        5 * time.Second,
			AnnounceDelay:       10 * time.Second,
			StartRecheckDelay:   2 * time.Second,
			RestartWaitAPI:      33 * time.Second,
			RestartWaitFallback: 3 * time.Second,
			LogLines:            50,
		},
		Backup: BackupConfig{
			SavePath: "",
			Root:     "",
			Interval: 3 * time.Hour,
			MaxAge:   24 * time.Hour,
		},
		Restart: RestartConfig{
			DailyEnabled:    false,
			DailyTime:       "05:00",
			RecheckInterval: time.Hour,
		},
		Notify: NotifyConfig{
			Enabled:       true,
			CheckInterval: time.Minute,
		},
		Security: SecurityConfig{
			PanelPassword:  "admin",
			JWTSecret:      "",
			SessionTimeout: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// REST API password falls back to the panel password, matching the
	// game server's AdminPassword convention.
	if cfg.RestAPI.Password == "" {
		cfg.RestAPI.Password = cfg.Security.PanelPassword
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches the default paths for a config file.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as space- or
// comma-separated slices when they arrive as env strings.
var sliceConfigPaths = []string{
	"game.args",
}

// processSliceFields converts separated string values to slices for known
// slice fields. Env vars come in as strings but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		// Launch args are conventionally space-separated (PAL_SERVER_ARGS);
		// commas are accepted too.
		sep := " "
		if strings.Contains(strVal, ",") {
			sep = ","
		}
		parts := strings.Split(strVal, sep)
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Legacy variable names from earlier panel versions are preserved.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Panel server
		"port":         "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// Game server process
		"pal_server_path":   "game.executable_path",
		"pal_server_args":   "game.args",
		"pal_working_dir":   "game.working_dir",
		"pal_process_name":  "game.process_name",
		"pal_settings_path": "game.settings_path",

		// REST control API
		"rest_api_enabled":       "restapi.enabled",
		"rest_api_host":          "restapi.host",
		"rest_api_port":          "restapi.port",
		"rest_api_username":      "restapi.username",
		"rest_api_password":      "restapi.password",
		"rest_api_poll_interval": "restapi.poll_interval",
		"rest_api_timeout":       "restapi.timeout",

		// Storage
		"db_path":         "database.path",
		"player_data_dir": "presence.data_dir",

		// Lifecycle timings
		"notice_seconds":        "lifecycle.notice_seconds",
		"safety_margin":         "lifecycle.safety_margin",
		"announce_delay":        "lifecycle.announce_delay",
		"restart_wait_api":      "lifecycle.restart_wait_api",
		"restart_wait_fallback": "lifecycle.restart_wait_fallback",
		"log_lines":             "lifecycle.log_lines",

		// Backups
		"pal_save_path":   "backup.save_path",
		"pal_backup_root": "backup.root",
		"backup_interval": "backup.interval",
		"backup_max_age":  "backup.max_age",

		// Scheduled restart
		"daily_restart_enabled": "restart.daily_enabled",
		"daily_restart_time":    "restart.daily_time",
		"daily_restart_recheck": "restart.recheck_interval",

		// Notifications
		"notify_enabled":        "notify.enabled",
		"notify_check_interval": "notify.check_interval",

		// Security
		"panel_password":  "security.panel_password",
		"jwt_secret":      "security.jwt_secret",
		"session_timeout": "security.session_timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped so random environment variables do not
	// pollute the config.
	return ""
}
