// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package lifecycle

import (
	"context"
	"time"

	"github.com/tomtom215/palward/internal/clock"
	"github.com/tomtom215/palward/internal/logging"
)

// OnlineCounter reports how many players are online right now.
type OnlineCounter interface {
	OnlineCount() int
}

// Restarter is the controller surface the daily restart drives.
type Restarter interface {
	Restart(ctx context.Context) Result
	Save(ctx context.Context) error
}

// controllerRestarter adapts Controller plus the API save call.
type controllerRestarter struct {
	ctrl *Controller
	api  ControlAPI
}

// NewRestarter bundles a Controller with its API for the daily restart.
func NewRestarter(ctrl *Controller, api ControlAPI) Restarter {
	return &controllerRestarter{ctrl: ctrl, api: api}
}

func (r *controllerRestarter) Restart(ctx context.Context) Result {
	return r.ctrl.Restart(ctx)
}

func (r *controllerRestarter) Save(ctx context.Context) error {
	return r.api.Save(ctx)
}

// DailyRestarter restarts the server once per day at a fixed local
// wall-clock time. A populated server is never restarted: while players
// are online the restart defers and re-checks periodically until the
// server empties, then runs exactly once. It implements suture.Service.
type DailyRestarter struct {
	target  Restarter
	online  OnlineCounter
	clk     clock.Clock
	atTime  time.Duration
	recheck time.Duration
}

// NewDailyRestarter creates the service. atTime is the offset from local
// midnight (see config.ParseDailyTime).
func NewDailyRestarter(target Restarter, online OnlineCounter, clk clock.Clock, atTime, recheck time.Duration) *DailyRestarter {
	return &DailyRestarter{
		target:  target,
		online:  online,
		clk:     clk,
		atTime:  atTime,
		recheck: recheck,
	}
}

// nextDue returns the next local occurrence of the configured time
// strictly after now.
func (d *DailyRestarter) nextDue(now time.Time) time.Time {
	year, month, day := now.Date()
	due := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).Add(d.atTime)
	if !due.After(now) {
		due = due.Add(24 * time.Hour)
	}
	return due
}

// Serve runs the daily restart loop until ctx is done. The single loop
// is what makes the restart exactly-once: the next day's occurrence is
// computed only after the current one completes, so deferred re-checks
// can never stack into duplicate restarts.
func (d *DailyRestarter) Serve(ctx context.Context) error {
	next := d.nextDue(d.clk.Now())
	logging.Info().Time("next", next).Msg("Daily restart scheduled")

	for {
		if wait := next.Sub(d.clk.Now()); wait > 0 {
			if err := d.clk.Sleep(ctx, wait); err != nil {
				return err
			}
		}

		for {
			online := d.online.OnlineCount()
			if online == 0 {
				break
			}
			logging.Info().Int("online", online).Msg("Daily restart deferred, players online")
			if err := d.clk.Sleep(ctx, d.recheck); err != nil {
				return err
			}
		}

		logging.Info().Msg("Running daily restart")
		if err := d.target.Save(ctx); err != nil {
			logging.Warn().Err(err).Msg("Pre-restart save failed")
		}
		if res := d.target.Restart(ctx); !res.OK {
			logging.Error().Str("reason", res.Message).Msg("Daily restart failed")
		}

		next = d.nextDue(d.clk.Now())
		logging.Info().Time("next", next).Msg("Daily restart scheduled")
	}
}

// String names the service for supervisor logs.
func (d *DailyRestarter) String() string {
	return "daily-restart"
}
