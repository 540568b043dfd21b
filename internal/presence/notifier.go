// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/palward/internal/clock"
	"github.com/tomtom215/palward/internal/logging"
)

// PlaytimeSource reports a player's accumulated minutes including the
// open-session live-elapsed portion.
type PlaytimeSource interface {
	TotalMinutesFor(ctx context.Context, userID string, now time.Time) (float64, error)
}

// Announcer broadcasts a message to connected players.
type Announcer interface {
	Announce(ctx context.Context, message string) error
}

// Notifier announces whole-hour playtime milestones for online players.
// It implements suture.Service and checks once a minute.
//
// Milestones are deduplicated per player and hour: a player is seeded at
// their current hour count on join, so only hours earned while online
// are announced, and the seed is dropped again on leave.
type Notifier struct {
	tracker  *Tracker
	playtime PlaytimeSource
	announce Announcer
	clk      clock.Clock
	interval time.Duration

	mu        sync.Mutex
	announced map[string]int
}

// NewNotifier creates a Notifier checking every interval.
func NewNotifier(tracker *Tracker, playtime PlaytimeSource, announce Announcer, clk clock.Clock, interval time.Duration) *Notifier {
	return &Notifier{
		tracker:   tracker,
		playtime:  playtime,
		announce:  announce,
		clk:       clk,
		interval:  interval,
		announced: make(map[string]int),
	}
}

// SeedPlayer records the player's current milestone baseline. Wired as
// the reconciler's join hook.
func (n *Notifier) SeedPlayer(ctx context.Context) func(key string, now time.Time) {
	return func(key string, now time.Time) {
		total, err := n.playtime.TotalMinutesFor(ctx, key, now)
		if err != nil {
			logging.Debug().Err(err).Str("id", key).Msg("Failed to seed milestone baseline")
			return
		}
		n.mu.Lock()
		n.announced[key] = int(total / 60)
		n.mu.Unlock()
	}
}

// ForgetPlayer drops the player's milestone baseline. Wired as the
// reconciler's leave hook.
func (n *Notifier) ForgetPlayer(key string) {
	n.mu.Lock()
	delete(n.announced, key)
	n.mu.Unlock()
}

// CheckOnce announces any newly crossed hour milestones for the players
// currently online.
func (n *Notifier) CheckOnce(ctx context.Context) {
	now := n.clk.Now()

	for _, p := range n.tracker.Online() {
		total, err := n.playtime.TotalMinutesFor(ctx, p.Key, now)
		if err != nil {
			logging.Debug().Err(err).Str("id", p.Key).Msg("Failed to read playtime for milestone check")
			continue
		}

		hours := int(total / 60)
		if hours < 1 {
			continue
		}

		n.mu.Lock()
		last, seeded := n.announced[p.Key]
		if !seeded {
			// Unseeded players (joined before the notifier started)
			// baseline at their current count instead of announcing a
			// backlog of old milestones.
			n.announced[p.Key] = hours
			n.mu.Unlock()
			continue
		}
		crossed := hours > last
		if crossed {
			n.announced[p.Key] = hours
		}
		n.mu.Unlock()

		if !crossed {
			continue
		}

		msg := fmt.Sprintf("%s has reached %d hour(s) of playtime!", p.DisplayName, hours)
		if err := n.announce.Announce(ctx, msg); err != nil {
			logging.Debug().Err(err).Str("id", p.Key).Msg("Milestone announcement failed")
			continue
		}
		logging.Info().Str("player", p.DisplayName).Int("hours", hours).Msg("Announced playtime milestone")
	}
}

// Serve runs the milestone loop until ctx is done.
func (n *Notifier) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", n.interval).Msg("Session notifier started")

	timer := time.NewTimer(n.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			n.CheckOnce(ctx)
			timer.Reset(n.interval)
		}
	}
}

// String names the service for supervisor logs.
func (n *Notifier) String() string {
	return "session-notifier"
}
