// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package main is the entry point for the Palward panel process.
//
// Palward manages a single Palworld dedicated server: it launches and
// stops the game process, polls the game's REST API for the online
// player list, records presence sessions in SQLite, snapshots the save
// directory, and serves a JWT-protected control API for the panel UI.
//
// Initialization order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML, env)
//  2. Logging: zerolog, JSON or console format
//  3. Database: SQLite session store, plus crash recovery that closes
//     sessions left open by an unclean panel shutdown
//  4. Legacy migration: one-shot import of the flat player_list.txt
//     and playtime.txt files into the database
//  5. Game API client: circuit-breaker wrapped REST client
//  6. Lifecycle controller: process launch, graceful and forced stop
//  7. Supervisor tree: poller, notifier, daily restart, backups, HTTP
//
// Shutdown is graceful on SIGINT and SIGTERM: the supervisor stops
// every service, the HTTP server drains, and the database closes. The
// game server itself is left running; the panel reattaches to it on
// the next start.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/palward/internal/api"
	"github.com/tomtom215/palward/internal/auth"
	"github.com/tomtom215/palward/internal/backup"
	"github.com/tomtom215/palward/internal/clock"
	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/database"
	"github.com/tomtom215/palward/internal/lifecycle"
	"github.com/tomtom215/palward/internal/logging"
	"github.com/tomtom215/palward/internal/palapi"
	"github.com/tomtom215/palward/internal/presence"
	"github.com/tomtom215/palward/internal/process"
	"github.com/tomtom215/palward/internal/settings"
	"github.com/tomtom215/palward/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	monitor := process.NewMonitor(cfg.Game.ResolvedProcessName())

	logging.Info().
		Str("process_name", monitor.ImageName()).
		Bool("restapi_enabled", cfg.RestAPI.Enabled).
		Str("db_path", cfg.Database.Path).
		Msg("Starting Palward")

	clk := clock.New()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Sessions left open by an unclean panel shutdown are unclosable;
	// closing them at startup keeps playtime totals from inflating.
	if closed, err := db.CloseStaleSessions(startupCtx, time.Now().UTC()); err != nil {
		logging.Fatal().Err(err).Msg("Failed to close stale sessions")
	} else if closed > 0 {
		logging.Warn().Int("closed", closed).Msg("Closed sessions left open by a previous run")
	}

	legacy := presence.NewLegacyFiles(cfg.Presence.PlayerListFile(), cfg.Presence.PlaytimeFile())
	legacyPlaytime, err := legacy.LoadPlaytime()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to read legacy playtime file")
	}
	everConnected, err := legacy.LoadPlayerList()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to read legacy player list")
	}

	// One-shot import of the flat files into an empty database. Ids that
	// appear only in the membership list become player rows with no
	// sessions.
	entries := database.MergeLegacy(legacyPlaytime, everConnected)
	if migrated, err := db.MigrateLegacy(startupCtx, entries, time.Now().UTC()); err != nil {
		logging.Fatal().Err(err).Msg("Legacy migration failed")
	} else if migrated > 0 {
		logging.Info().Int("players", migrated).Msg("Imported legacy playtime data")
	}

	var game palapi.API = palapi.Disabled{}
	if cfg.RestAPI.Enabled {
		game = palapi.NewBreakerClient(&cfg.RestAPI)
	}

	launcher := process.NewLauncher(&cfg.Game)
	tracker := presence.NewTracker(everConnected)

	ring := lifecycle.NewRingLog(cfg.Lifecycle.LogLines, cfg.Presence.PanelLogFile())
	ctrl := lifecycle.NewController(&cfg.Lifecycle, game, monitor, launcher, clk, ring)

	reconciler := presence.NewReconciler(tracker, db, game, monitor, clk, legacy, legacyPlaytime)

	var notifier *presence.Notifier
	if cfg.Notify.Enabled && cfg.RestAPI.Enabled {
		notifier = presence.NewNotifier(tracker, db, game, clk, cfg.Notify.CheckInterval)
		reconciler.SetJoinHook(notifier.SeedPlayer(context.Background()))
		reconciler.SetLeaveHook(notifier.ForgetPlayer)
	}

	var settingsManager *settings.Manager
	if cfg.Game.SettingsPath != "" {
		settingsManager = settings.NewManager(cfg.Game.SettingsPath, game)
	}

	var backupManager *backup.Manager
	if cfg.Backup.Enabled() {
		backupManager = backup.NewManager(cfg.Backup, game, clk)
	}

	verifier, err := auth.NewVerifier(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to configure authentication")
	}
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = randomSecret()
		logging.Warn().Msg("security.jwt_secret not set, sessions will not survive a panel restart")
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to configure session tokens")
	}

	httpServer := api.NewServer(verifier, jwtManager, ctrl, tracker, db,
		gameOrNil(cfg.RestAPI.Enabled, game),
		settingsOrNil(settingsManager),
		backupsOrNil(backupManager))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if cfg.RestAPI.Enabled {
		tree.AddPresenceService(presence.NewPoller(reconciler, cfg.RestAPI.PollInterval))
	}
	if notifier != nil {
		tree.AddPresenceService(notifier)
	}
	if cfg.Restart.DailyEnabled {
		atTime, err := config.ParseDailyTime(cfg.Restart.DailyTime)
		if err != nil {
			logging.Fatal().Err(err).Msg("Invalid daily restart time")
		}
		tree.AddScheduledService(lifecycle.NewDailyRestarter(
			lifecycle.NewRestarter(ctrl, game), tracker, clk, atTime, cfg.Restart.RecheckInterval))
	}
	if backupManager != nil {
		tree.AddScheduledService(backup.NewService(backupManager, clk, cfg.Backup.Interval))
	}
	tree.AddAPIService(api.NewService(cfg.Server, httpServer.Routes()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Int("port", cfg.Server.Port).Msg("Palward started")
	if err := tree.Serve(ctx); err != nil && err != context.Canceled {
		logging.Error().Err(err).Msg("Supervisor exited with error")
		os.Exit(1)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	logging.Info().Msg("Palward stopped")
}

// randomSecret generates an ephemeral JWT secret for runs without a
// configured one.
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logging.Fatal().Err(err).Msg("Failed to generate session secret")
	}
	return hex.EncodeToString(buf)
}

// The api.Server treats nil feature dependencies as "not configured";
// typed nils from concrete pointers would defeat those checks.

func gameOrNil(enabled bool, game palapi.API) api.GameAPI {
	if !enabled {
		return nil
	}
	return game
}

func settingsOrNil(m *settings.Manager) api.SettingsManager {
	if m == nil {
		return nil
	}
	return m
}

func backupsOrNil(m *backup.Manager) api.BackupRunner {
	if m == nil {
		return nil
	}
	return m
}
