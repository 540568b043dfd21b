// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/palward/internal/clock"
)

type fakePlaytime struct {
	minutes map[string]float64
}

func (f *fakePlaytime) TotalMinutesFor(_ context.Context, userID string, _ time.Time) (float64, error) {
	return f.minutes[userID], nil
}

type fakeAnnouncer struct {
	messages []string
	err      error
}

func (f *fakeAnnouncer) Announce(_ context.Context, message string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func TestNotifierAnnouncesNewMilestone(t *testing.T) {
	tracker := NewTracker(nil)
	playtime := &fakePlaytime{minutes: map[string]float64{"A": 50}}
	announcer := &fakeAnnouncer{}
	clk := clock.NewFake(time.Now())
	n := NewNotifier(tracker, playtime, announcer, clk, time.Minute)
	ctx := context.Background()

	now := clk.Now()
	tracker.MarkJoin("A", "Alice", now)
	n.SeedPlayer(ctx)("A", now)

	// Below the next milestone: quiet.
	n.CheckOnce(ctx)
	assert.Empty(t, announcer.messages)

	// Crosses one hour.
	playtime.minutes["A"] = 65
	n.CheckOnce(ctx)
	require.Len(t, announcer.messages, 1)
	assert.Contains(t, announcer.messages[0], "Alice")
	assert.Contains(t, announcer.messages[0], "1 hour")

	// Same hour again: deduplicated.
	n.CheckOnce(ctx)
	assert.Len(t, announcer.messages, 1)

	// Next hour crossed.
	playtime.minutes["A"] = 125
	n.CheckOnce(ctx)
	assert.Len(t, announcer.messages, 2)
}

func TestNotifierSeedSuppressesBacklog(t *testing.T) {
	tracker := NewTracker(nil)
	playtime := &fakePlaytime{minutes: map[string]float64{"A": 600}}
	announcer := &fakeAnnouncer{}
	clk := clock.NewFake(time.Now())
	n := NewNotifier(tracker, playtime, announcer, clk, time.Minute)
	ctx := context.Background()

	now := clk.Now()
	tracker.MarkJoin("A", "Alice", now)
	n.SeedPlayer(ctx)("A", now)

	// Ten hours of history from before this session: nothing announced.
	n.CheckOnce(ctx)
	assert.Empty(t, announcer.messages)

	playtime.minutes["A"] = 665
	n.CheckOnce(ctx)
	require.Len(t, announcer.messages, 1)
	assert.Contains(t, announcer.messages[0], "11 hour")
}

func TestNotifierUnseededPlayerBaselinesQuietly(t *testing.T) {
	tracker := NewTracker(nil)
	playtime := &fakePlaytime{minutes: map[string]float64{"A": 120}}
	announcer := &fakeAnnouncer{}
	clk := clock.NewFake(time.Now())
	n := NewNotifier(tracker, playtime, announcer, clk, time.Minute)
	ctx := context.Background()

	tracker.MarkJoin("A", "Alice", clk.Now())

	// First observation baselines without announcing.
	n.CheckOnce(ctx)
	assert.Empty(t, announcer.messages)

	playtime.minutes["A"] = 185
	n.CheckOnce(ctx)
	assert.Len(t, announcer.messages, 1)
}

func TestNotifierForgetPlayerResets(t *testing.T) {
	tracker := NewTracker(nil)
	playtime := &fakePlaytime{minutes: map[string]float64{"A": 65}}
	announcer := &fakeAnnouncer{}
	clk := clock.NewFake(time.Now())
	n := NewNotifier(tracker, playtime, announcer, clk, time.Minute)
	ctx := context.Background()

	now := clk.Now()
	tracker.MarkJoin("A", "Alice", now)
	n.SeedPlayer(ctx)("A", now)
	n.CheckOnce(ctx)
	require.Len(t, announcer.messages, 1)

	tracker.MarkLeave("A")
	n.ForgetPlayer("A")

	// Rejoin re-seeds at the current hour; no duplicate announcement.
	tracker.MarkJoin("A", "Alice", clk.Now())
	n.SeedPlayer(ctx)("A", clk.Now())
	n.CheckOnce(ctx)
	assert.Len(t, announcer.messages, 1)
}

func TestNotifierSkipsOfflinePlayers(t *testing.T) {
	tracker := NewTracker(nil)
	playtime := &fakePlaytime{minutes: map[string]float64{"A": 600}}
	announcer := &fakeAnnouncer{}
	clk := clock.NewFake(time.Now())
	n := NewNotifier(tracker, playtime, announcer, clk, time.Minute)

	n.CheckOnce(context.Background())
	assert.Empty(t, announcer.messages)
}
