// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package clock

import (
	"context"
	"time"
)

// Clock provides time operations that can be faked for testing.
//
// AfterFunc is the primitive behind the lifecycle controller's safety
// timers: a fire-and-forget deferred task that re-checks live state when it
// fires. Timers are not cancelable; fired callbacks are expected to be
// self-guarding no-ops when their condition has already resolved.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc runs fn on its own goroutine after d has elapsed.
	AfterFunc(d time.Duration, fn func())

	// Sleep waits for d or until ctx is done, whichever comes first.
	// Returns ctx.Err() when the context ended the wait early.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// New creates a new RealClock.
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules fn via time.AfterFunc.
func (c *RealClock) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Sleep waits for d or context cancellation.
func (c *RealClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
