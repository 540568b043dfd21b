// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/palward/internal/auth"
	"github.com/tomtom215/palward/internal/lifecycle"
	"github.com/tomtom215/palward/internal/models"
	"github.com/tomtom215/palward/internal/presence"
	"github.com/tomtom215/palward/internal/settings"
)

// Controller is the lifecycle surface the handlers drive.
type Controller interface {
	State() lifecycle.State
	Running(ctx context.Context) bool
	Ring() *lifecycle.RingLog
	Start(ctx context.Context) lifecycle.Result
	StopGraceful(ctx context.Context) lifecycle.Result
	StopWithNotice(ctx context.Context, countdownSeconds int) lifecycle.Result
	StopForced(ctx context.Context) lifecycle.Result
	Restart(ctx context.Context) lifecycle.Result
}

// PresenceView is the tracker surface the handlers read.
type PresenceView interface {
	Online() []presence.OnlinePlayer
	OnlineCount() int
	EverConnected() []string
}

// StatsStore is the database surface the statistics handlers read.
type StatsStore interface {
	PlayerStats(ctx context.Context, now time.Time) ([]models.PlayerStats, error)
	DailyStats(ctx context.Context, days int, now time.Time) ([]models.DailyStat, error)
	RecentSessions(ctx context.Context, limit int) ([]models.Session, error)
	SessionsForPlayer(ctx context.Context, userID string, limit int) ([]models.Session, error)
}

// GameAPI is the slice of the game's REST API the panel relays.
type GameAPI interface {
	Announce(ctx context.Context, message string) error
	Save(ctx context.Context) error
	Available() (bool, error)
}

// SettingsManager mediates the settings file.
type SettingsManager interface {
	View(ctx context.Context) ([]settings.Entry, error)
	Update(changes map[string]string) error
}

// BackupRunner takes and lists save snapshots.
type BackupRunner interface {
	RunNow(ctx context.Context) (string, error)
	List() ([]string, error)
}

// Server bundles every dependency the HTTP surface needs.
type Server struct {
	verifier *auth.Verifier
	jwt      *auth.JWTManager
	ctrl     Controller
	tracker  PresenceView
	store    StatsStore
	game     GameAPI
	settings SettingsManager
	backups  BackupRunner
}

// NewServer wires the handler set. game, settings, and backups may be
// nil when the matching feature is not configured; their endpoints then
// answer 503.
func NewServer(verifier *auth.Verifier, jwt *auth.JWTManager, ctrl Controller, tracker PresenceView, store StatsStore, game GameAPI, settingsManager SettingsManager, backups BackupRunner) *Server {
	return &Server{
		verifier: verifier,
		jwt:      jwt,
		ctrl:     ctrl,
		tracker:  tracker,
		store:    store,
		game:     game,
		settings: settingsManager,
		backups:  backups,
	}
}

// Routes builds the full router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(AccessLog)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Login is strictly limited; everything is per-address on top of
	// the verifier's own per-address budget.
	r.With(httprate.LimitByIP(10, time.Minute)).Post("/api/login", s.handleLogin)

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(300, time.Minute))
		r.Use(auth.RequireAuth(s.jwt))

		r.Get("/status", s.handleStatus)
		r.Get("/logs", s.handleLogs)
		r.Get("/players", s.handlePlayers)

		r.Route("/server", func(r chi.Router) {
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
			r.Post("/stop-notice", s.handleStopWithNotice)
			r.Post("/force-stop", s.handleForceStop)
			r.Post("/restart", s.handleRestart)
			r.Post("/announce", s.handleAnnounce)
			r.Post("/save", s.handleSave)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/players", s.handlePlayerStats)
			r.Get("/daily", s.handleDailyStats)
			r.Get("/sessions", s.handleRecentSessions)
			r.Get("/players/{userID}/sessions", s.handlePlayerSessions)
		})

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Get("/backups", s.handleListBackups)
		r.Post("/backups", s.handleRunBackup)
	})

	return r
}
