// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package presence

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/palward/internal/clock"
	"github.com/tomtom215/palward/internal/database"
	"github.com/tomtom215/palward/internal/logging"
	"github.com/tomtom215/palward/internal/metrics"
	"github.com/tomtom215/palward/internal/palapi"
)

// Store is the session store surface the reconciler needs.
type Store interface {
	UpsertPlayer(ctx context.Context, userID, displayName string, seenAt time.Time) error
	OpenSession(ctx context.Context, userID, displayName string, joinTime time.Time) (int64, error)
	CloseSession(ctx context.Context, userID string, leaveTime time.Time) error
	HasOpenSession(ctx context.Context, userID string) (bool, error)
}

// PlayerSource provides the current player list.
type PlayerSource interface {
	GetPlayers(ctx context.Context) ([]palapi.Player, error)
}

// ProcessChecker reports whether the managed process is running.
type ProcessChecker interface {
	Running(ctx context.Context) (bool, error)
}

// Reconciler drives the poll tick protocol: diff the fetched player
// list against the previous snapshot, emit joins and leaves, then run a
// self-healing pass that makes the fetched list authoritative.
type Reconciler struct {
	tracker *Tracker
	store   Store
	source  PlayerSource
	proc    ProcessChecker
	clk     clock.Clock
	legacy  *LegacyFiles

	// Cumulative minutes mirrored to the legacy playtime file.
	// Mutated only on the tick path.
	playtime map[string]float64

	onJoin  func(key string, now time.Time)
	onLeave func(key string)
}

// NewReconciler creates a Reconciler. legacyPlaytime seeds the
// cumulative totals mirrored to the flat file; pass the result of
// LegacyFiles.LoadPlaytime. The callbacks may be nil.
func NewReconciler(tracker *Tracker, store Store, source PlayerSource, proc ProcessChecker, clk clock.Clock, legacy *LegacyFiles, legacyPlaytime map[string]float64) *Reconciler {
	if legacyPlaytime == nil {
		legacyPlaytime = make(map[string]float64)
	}
	return &Reconciler{
		tracker:  tracker,
		store:    store,
		source:   source,
		proc:     proc,
		clk:      clk,
		legacy:   legacy,
		playtime: legacyPlaytime,
	}
}

// SetJoinHook registers a callback invoked after each join event.
func (r *Reconciler) SetJoinHook(fn func(key string, now time.Time)) {
	r.onJoin = fn
}

// SetLeaveHook registers a callback invoked after each leave event.
func (r *Reconciler) SetLeaveHook(fn func(key string)) {
	r.onLeave = fn
}

// Tick runs one reconciliation pass. The wall clock is read exactly
// once; every timestamp within the tick derives from it.
//
// Errors from the player source or the store never fail the tick: a
// fetch failure skips the tick entirely (absence of data is not absence
// of players) and persistence failures degrade to in-memory state only.
func (r *Reconciler) Tick(ctx context.Context) {
	now := r.clk.Now()

	running, err := r.proc.Running(ctx)
	if err != nil {
		logging.Debug().Err(err).Msg("Process check failed during poll")
	}
	if !running {
		// No live process means nobody is online. Clear state without
		// emitting events; open sessions in the store survive so a
		// process restart mid-session reads as a continuous stay.
		if r.tracker.OnlineCount() > 0 {
			logging.Info().Int("cleared", r.tracker.OnlineCount()).Msg("Server not running, clearing online state")
		}
		r.tracker.ClearOnline()
		metrics.PollsTotal.WithLabelValues("skipped").Inc()
		return
	}

	players, err := r.source.GetPlayers(ctx)
	if err != nil {
		// Fail safe: no joins or leaves are inferred from a failed read.
		if errors.Is(err, palapi.ErrUnreachable) {
			logging.Debug().Err(err).Msg("Player list unavailable, skipping poll tick")
		} else {
			logging.Warn().Err(err).Msg("Player list fetch failed, skipping poll tick")
		}
		metrics.PollsTotal.WithLabelValues("error").Inc()
		return
	}

	current := make(map[string]struct{}, len(players))
	names := make(map[string]string, len(players))
	for _, p := range players {
		key := p.Key()
		if key == "" {
			continue
		}
		current[key] = struct{}{}
		names[key] = p.DisplayName()
	}

	// Joins: present now, absent from the previous snapshot.
	for key := range current {
		if !r.tracker.SnapshotContains(key) {
			r.join(ctx, key, names[key], now)
		}
	}

	// Leaves: in the previous snapshot, absent now.
	for _, key := range r.tracker.SnapshotKeys() {
		if _, ok := current[key]; !ok {
			r.leave(ctx, key, now)
		}
	}

	// Reconciliation pass: the fetched list is authoritative. Anyone in
	// the response but not marked online (a join missed across a process
	// restart, or drift after an outage) is joined now. The open-session
	// guard inside join keeps this idempotent within the tick.
	for key := range current {
		if !r.tracker.IsOnline(key) {
			r.join(ctx, key, names[key], now)
		}
	}

	r.tracker.ReplaceSnapshot(current)
	metrics.PollsTotal.WithLabelValues("success").Inc()
}

// join marks the player online, records the sighting, and opens a
// session unless one is already open. Safe to call twice for the same
// key within a tick.
func (r *Reconciler) join(ctx context.Context, key, displayName string, now time.Time) {
	if !r.tracker.MarkJoin(key, displayName, now) {
		return
	}

	logging.Info().Str("player", displayName).Str("id", key).Msg("Player joined")
	metrics.PlayerJoins.Inc()

	if err := r.store.UpsertPlayer(ctx, key, displayName, now); err != nil {
		logging.Error().Err(err).Str("id", key).Msg("Failed to record player sighting")
	}

	open, err := r.store.HasOpenSession(ctx, key)
	if err != nil {
		logging.Error().Err(err).Str("id", key).Msg("Failed to check open session")
	}
	if err == nil && !open {
		if _, err := r.store.OpenSession(ctx, key, displayName, now); err != nil && !errors.Is(err, database.ErrSessionAlreadyOpen) {
			logging.Error().Err(err).Str("id", key).Msg("Failed to open session")
		}
	}

	r.persistPlayerList()

	if r.onJoin != nil {
		r.onJoin(key, now)
	}
}

// leave marks the player offline, closes the open session, and folds
// the interval into the legacy cumulative totals.
func (r *Reconciler) leave(ctx context.Context, key string, now time.Time) {
	joinTime, ok := r.tracker.MarkLeave(key)
	if !ok {
		return
	}

	minutes := now.Sub(joinTime).Minutes()
	if minutes < 0 {
		minutes = 0
	}

	logging.Info().Str("id", key).Float64("minutes", minutes).Msg("Player left")
	metrics.PlayerLeaves.Inc()

	if err := r.store.CloseSession(ctx, key, now); err != nil && !errors.Is(err, database.ErrNoOpenSession) {
		logging.Error().Err(err).Str("id", key).Msg("Failed to close session")
	}

	r.playtime[key] += minutes
	r.persistPlaytime()

	if r.onLeave != nil {
		r.onLeave(key)
	}
}

// persistPlayerList mirrors the ever-connected set to the legacy file.
func (r *Reconciler) persistPlayerList() {
	if r.legacy == nil {
		return
	}
	if err := r.legacy.SavePlayerList(r.tracker.EverConnected()); err != nil {
		logging.Error().Err(err).Msg("Failed to write legacy player list")
	}
}

// persistPlaytime mirrors the cumulative totals to the legacy file.
func (r *Reconciler) persistPlaytime() {
	if r.legacy == nil {
		return
	}
	if err := r.legacy.SavePlaytime(r.playtime); err != nil {
		logging.Error().Err(err).Msg("Failed to write legacy playtime file")
	}
}
