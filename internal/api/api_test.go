// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/palward/internal/auth"
	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/lifecycle"
	"github.com/tomtom215/palward/internal/models"
	"github.com/tomtom215/palward/internal/presence"
	"github.com/tomtom215/palward/internal/settings"
)

type fakeController struct {
	state   lifecycle.State
	running bool
	ring    *lifecycle.RingLog
	calls   []string
	result  lifecycle.Result
}

func (f *fakeController) State() lifecycle.State         { return f.state }
func (f *fakeController) Running(context.Context) bool   { return f.running }
func (f *fakeController) Ring() *lifecycle.RingLog       { return f.ring }
func (f *fakeController) Start(context.Context) lifecycle.Result {
	f.calls = append(f.calls, "start")
	return f.result
}
func (f *fakeController) StopGraceful(context.Context) lifecycle.Result {
	f.calls = append(f.calls, "stop")
	return f.result
}
func (f *fakeController) StopWithNotice(_ context.Context, seconds int) lifecycle.Result {
	f.calls = append(f.calls, "stop-notice")
	return f.result
}
func (f *fakeController) StopForced(context.Context) lifecycle.Result {
	f.calls = append(f.calls, "force-stop")
	return f.result
}
func (f *fakeController) Restart(context.Context) lifecycle.Result {
	f.calls = append(f.calls, "restart")
	return f.result
}

type fakeTracker struct {
	online []presence.OnlinePlayer
	ever   []string
}

func (f *fakeTracker) Online() []presence.OnlinePlayer { return f.online }
func (f *fakeTracker) OnlineCount() int                { return len(f.online) }
func (f *fakeTracker) EverConnected() []string         { return f.ever }

type fakeStore struct {
	stats    []models.PlayerStats
	daily    []models.DailyStat
	sessions []models.Session
	lastDays int
	lastUser string
}

func (f *fakeStore) PlayerStats(context.Context, time.Time) ([]models.PlayerStats, error) {
	return f.stats, nil
}

func (f *fakeStore) DailyStats(_ context.Context, days int, _ time.Time) ([]models.DailyStat, error) {
	f.lastDays = days
	return f.daily, nil
}

func (f *fakeStore) RecentSessions(context.Context, int) ([]models.Session, error) {
	return f.sessions, nil
}

func (f *fakeStore) SessionsForPlayer(_ context.Context, userID string, _ int) ([]models.Session, error) {
	f.lastUser = userID
	return f.sessions, nil
}

type fakeGame struct {
	available bool
	announced []string
	saves     int
}

func (f *fakeGame) Announce(_ context.Context, message string) error {
	f.announced = append(f.announced, message)
	return nil
}

func (f *fakeGame) Save(context.Context) error {
	f.saves++
	return nil
}

func (f *fakeGame) Available() (bool, error) { return f.available, nil }

type fakeSettings struct {
	entries []settings.Entry
	updated map[string]string
}

func (f *fakeSettings) View(context.Context) ([]settings.Entry, error) { return f.entries, nil }

func (f *fakeSettings) Update(changes map[string]string) error {
	f.updated = changes
	return nil
}

type fakeBackups struct {
	runs  int
	names []string
}

func (f *fakeBackups) RunNow(context.Context) (string, error) {
	f.runs++
	return "/backups/20260801-120000", nil
}

func (f *fakeBackups) List() ([]string, error) { return f.names, nil }

type testEnv struct {
	server  *Server
	ctrl    *fakeController
	tracker *fakeTracker
	store   *fakeStore
	game    *fakeGame
	sets    *fakeSettings
	backups *fakeBackups
	token   string
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	secCfg := &config.SecurityConfig{
		PanelPassword:  "correct horse battery staple",
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		SessionTimeout: time.Hour,
	}
	verifier, err := auth.NewVerifier(secCfg)
	require.NoError(t, err)
	jwtManager, err := auth.NewJWTManager(secCfg)
	require.NoError(t, err)
	token, err := jwtManager.GenerateToken()
	require.NoError(t, err)

	env := &testEnv{
		ctrl: &fakeController{
			state:  lifecycle.StateRunning,
			ring:   lifecycle.NewRingLog(10, ""),
			result: lifecycle.Result{OK: true, Message: "done"},
		},
		tracker: &fakeTracker{},
		store:   &fakeStore{},
		game:    &fakeGame{available: true},
		sets:    &fakeSettings{},
		backups: &fakeBackups{},
		token:   token,
	}
	env.ctrl.running = true
	env.server = NewServer(verifier, jwtManager, env.ctrl, env.tracker, env.store, env.game, env.sets, env.backups)
	env.handler = env.server.Routes()
	return env
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDataEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/status", "/api/players", "/api/stats/players", "/api/settings", "/api/backups"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestLoginIssuesTokenAndCookie(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"password": "correct horse battery staple"}))
	req := httptest.NewRequest(http.MethodPost, "/api/login", &buf)
	req.RemoteAddr = "10.1.2.3:55555"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.NotEmpty(t, body["token"])

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"password": "nope"}))
	req := httptest.NewRequest(http.MethodPost, "/api/login", &buf)
	req.RemoteAddr = "10.1.2.4:55555"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusReportsStateAndPlayers(t *testing.T) {
	env := newTestEnv(t)
	env.tracker.online = []presence.OnlinePlayer{
		{Key: "steam_1", DisplayName: "Ash", JoinTime: time.Now()},
	}
	env.ctrl.ring.Append("Server started")

	rec := env.request(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "running", body["state"])
	assert.Equal(t, true, body["running"])
	assert.Equal(t, true, body["api_available"])
	assert.Equal(t, float64(1), body["online_count"])
	assert.Contains(t, body["logs"], "Server started")
}

func TestControlEndpointsDispatch(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]string{
		"/api/server/start":      "start",
		"/api/server/stop":       "stop",
		"/api/server/force-stop": "force-stop",
		"/api/server/restart":    "restart",
	}
	for path, want := range cases {
		env.ctrl.calls = nil
		rec := env.request(t, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, []string{want}, env.ctrl.calls, path)
	}
}

func TestControlRefusalIsConflict(t *testing.T) {
	env := newTestEnv(t)
	env.ctrl.result = lifecycle.Result{OK: false, Message: "server is already running"}

	rec := env.request(t, http.MethodPost, "/api/server/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "server is already running", body["message"])
}

func TestStopWithNoticeBody(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/api/server/stop-notice", map[string]int{"seconds": 60})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"stop-notice"}, env.ctrl.calls)
}

func TestAnnounceRequiresMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/server/announce", map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/server/announce", map[string]string{"message": "Maintenance soon"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Maintenance soon"}, env.game.announced)
}

func TestStatsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.store.stats = []models.PlayerStats{{UserID: "steam_1", DisplayName: "Ash", TotalMinutes: 90}}
	env.store.daily = []models.DailyStat{{Day: "2026-08-01", UniquePlayers: 3}}
	env.store.sessions = []models.Session{{ID: 1, UserID: "steam_1"}}

	rec := env.request(t, http.MethodGet, "/api/stats/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "steam_1")

	rec = env.request(t, http.MethodGet, "/api/stats/daily?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, env.store.lastDays)

	rec = env.request(t, http.MethodGet, "/api/stats/daily?days=9999", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 365, env.store.lastDays, "days query is capped")

	rec = env.request(t, http.MethodGet, "/api/stats/players/steam_1/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "steam_1", env.store.lastUser)
}

func TestSettingsMasksSecrets(t *testing.T) {
	env := newTestEnv(t)
	env.sets.entries = []settings.Entry{
		{Definition: settings.Definition{Key: "ServerName", Type: settings.TypeString}, Value: "My Server"},
		{Definition: settings.Definition{Key: "AdminPassword", Type: settings.TypeString, Secret: true}, Value: "supersecret"},
	}

	rec := env.request(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "My Server")
	assert.NotContains(t, rec.Body.String(), "supersecret")
}

func TestSettingsUpdateDropsMaskedValues(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPut, "/api/settings", map[string]string{
		"ServerName":    "Renamed",
		"AdminPassword": secretMask,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"ServerName": "Renamed"}, env.sets.updated)
}

func TestBackupEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.backups.names = []string{"20260801-120000"}

	rec := env.request(t, http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.backups.runs)

	rec = env.request(t, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "20260801-120000")
}

func TestUnconfiguredFeaturesAnswer503(t *testing.T) {
	env := newTestEnv(t)
	env.server.settings = nil
	env.server.backups = nil
	env.server.game = nil
	env.handler = env.server.Routes()

	rec := env.request(t, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/backups", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/server/save", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
