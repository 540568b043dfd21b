// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package presence

import (
	"context"
	"time"

	"github.com/tomtom215/palward/internal/logging"
)

// Poller drives reconciliation ticks on a fixed interval. It implements
// suture.Service. The timer is re-armed only after a tick completes, so
// ticks never overlap no matter how slow the API or the store gets.
type Poller struct {
	reconciler *Reconciler
	interval   time.Duration
}

// NewPoller creates a Poller ticking every interval.
func NewPoller(reconciler *Reconciler, interval time.Duration) *Poller {
	return &Poller{reconciler: reconciler, interval: interval}
}

// Serve runs the poll loop until ctx is done.
func (p *Poller) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", p.interval).Msg("Presence poller started")

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Presence poller stopping")
			return ctx.Err()
		case <-timer.C:
			p.reconciler.Tick(ctx)
			timer.Reset(p.interval)
		}
	}
}

// String names the service for supervisor logs.
func (p *Poller) String() string {
	return "presence-poller"
}
