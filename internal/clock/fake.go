// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package clock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Deferred functions scheduled
// with AfterFunc fire synchronously inside Advance once their deadline is
// reached, which makes safety-timer behavior testable without real time.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	pending []fakeTimer
}

type fakeTimer struct {
	at time.Time
	fn func()
}

// NewFake creates a Fake clock starting at the given instant.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc registers fn to fire when the fake clock passes d from now.
func (f *Fake) AfterFunc(d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, fakeTimer{at: f.now.Add(d), fn: fn})
}

// Sleep returns immediately; fake time only moves via Advance.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
	f.firePending()
	return nil
}

// Advance moves the fake clock forward and fires every timer whose deadline
// has passed, in deadline order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
	f.firePending()
}

func (f *Fake) firePending() {
	for {
		f.mu.Lock()
		sort.SliceStable(f.pending, func(i, j int) bool {
			return f.pending[i].at.Before(f.pending[j].at)
		})
		var due *fakeTimer
		for i := range f.pending {
			if !f.pending[i].at.After(f.now) {
				timer := f.pending[i]
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				due = &timer
				break
			}
		}
		f.mu.Unlock()

		if due == nil {
			return
		}
		// Fired outside the lock so callbacks may schedule new timers.
		due.fn()
	}
}

// PendingCount reports how many timers have not fired yet.
func (f *Fake) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
