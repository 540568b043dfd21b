// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/palward/internal/metrics"
)

// OnlinePlayer is one entry of the tracker's online view.
type OnlinePlayer struct {
	Key         string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	JoinTime    time.Time `json:"joinTime"`
}

type onlineEntry struct {
	displayName string
	joinTime    time.Time
}

// Tracker owns the in-memory presence state: who is online now, who has
// ever connected, and the previous poll snapshot. The online set is
// always a subset of the ever-connected set.
//
// Mutation happens only on the reconciler's tick; the mutex exists for
// the panel API's concurrent reads.
type Tracker struct {
	mu       sync.RWMutex
	online   map[string]onlineEntry
	ever     map[string]struct{}
	snapshot map[string]struct{}
}

// NewTracker creates an empty Tracker seeded with the given
// ever-connected keys (from the legacy membership file, if any).
func NewTracker(everConnected []string) *Tracker {
	ever := make(map[string]struct{}, len(everConnected))
	for _, k := range everConnected {
		if k != "" {
			ever[k] = struct{}{}
		}
	}
	return &Tracker{
		online:   make(map[string]onlineEntry),
		ever:     ever,
		snapshot: make(map[string]struct{}),
	}
}

// MarkJoin records a player coming online. Returns false if the player
// was already marked online (no state change).
func (t *Tracker) MarkJoin(key, displayName string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.online[key]; ok {
		return false
	}
	t.online[key] = onlineEntry{displayName: displayName, joinTime: now}
	t.ever[key] = struct{}{}
	metrics.OnlinePlayers.Set(float64(len(t.online)))
	return true
}

// MarkLeave records a player going offline. Returns the join time and
// true, or false if the player was not marked online.
func (t *Tracker) MarkLeave(key string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.online[key]
	if !ok {
		return time.Time{}, false
	}
	delete(t.online, key)
	metrics.OnlinePlayers.Set(float64(len(t.online)))
	return e.joinTime, true
}

// IsOnline reports whether the player is currently marked online.
func (t *Tracker) IsOnline(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[key]
	return ok
}

// OnlineCount returns the number of players marked online.
func (t *Tracker) OnlineCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.online)
}

// Online returns the online players sorted by join time, oldest first.
func (t *Tracker) Online() []OnlinePlayer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	players := make([]OnlinePlayer, 0, len(t.online))
	for key, e := range t.online {
		players = append(players, OnlinePlayer{
			Key:         key,
			DisplayName: e.displayName,
			JoinTime:    e.joinTime,
		})
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinTime.Equal(players[j].JoinTime) {
			return players[i].Key < players[j].Key
		}
		return players[i].JoinTime.Before(players[j].JoinTime)
	})
	return players
}

// EverConnected returns every key that has ever been online, sorted.
func (t *Tracker) EverConnected() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.ever))
	for k := range t.ever {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClearOnline empties the online set and the snapshot without emitting
// events. Used when the managed process is not running; presence is
// meaningless without a live process.
func (t *Tracker) ClearOnline() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online = make(map[string]onlineEntry)
	t.snapshot = make(map[string]struct{})
	metrics.OnlinePlayers.Set(0)
}

// SnapshotContains reports whether the key was in the previous poll's
// snapshot.
func (t *Tracker) SnapshotContains(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.snapshot[key]
	return ok
}

// SnapshotKeys returns the previous snapshot's keys in no particular
// order.
func (t *Tracker) SnapshotKeys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.snapshot))
	for k := range t.snapshot {
		keys = append(keys, k)
	}
	return keys
}

// ReplaceSnapshot stores the just-fetched id set as the new snapshot.
func (t *Tracker) ReplaceSnapshot(keys map[string]struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snapshot = make(map[string]struct{}, len(keys))
	for k := range keys {
		t.snapshot[k] = struct{}{}
	}
}
