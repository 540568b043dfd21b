// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/palward/internal/logging"
)

// LegacyEntry is one player carried over from the flat-file era: the
// normalized key doubles as the display name, and Minutes is the
// accumulated playtime from the old tab-separated totals file.
type LegacyEntry struct {
	Key     string
	Minutes float64
}

// MergeLegacy combines the flat-file playtime totals and the membership
// list into import entries. Ids present only in the membership list get
// zero minutes, so they become player rows with no sessions.
func MergeLegacy(playtime map[string]float64, members []string) []LegacyEntry {
	entries := make([]LegacyEntry, 0, len(playtime)+len(members))
	seen := make(map[string]struct{}, len(playtime))
	for key, minutes := range playtime {
		entries = append(entries, LegacyEntry{Key: key, Minutes: minutes})
		seen[key] = struct{}{}
	}
	for _, key := range members {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, LegacyEntry{Key: key})
	}
	return entries
}

// MigrateLegacy imports flat-file player data into the store. The
// import runs only against an empty players table; once any player row
// exists the database is authoritative and the flat files are ignored.
//
// Accumulated playtime is preserved as one synthetic closed session per
// player ending at now, so lifetime totals survive the migration even
// though per-session history from that era never existed.
func (db *DB) MigrateLegacy(ctx context.Context, entries []LegacyEntry, now time.Time) (int, error) {
	count, err := db.CountPlayers(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logging.Debug().Int("players", count).Msg("Skipping legacy migration, store already populated")
		return 0, nil
	}

	imported := 0
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		if err := db.UpsertPlayer(ctx, e.Key, e.Key, now); err != nil {
			return imported, fmt.Errorf("migrate player %s: %w", e.Key, err)
		}
		if e.Minutes > 0 {
			joined := now.Add(-time.Duration(e.Minutes * float64(time.Minute)))
			if _, err := db.conn.ExecContext(ctx, `
				INSERT INTO sessions (user_id, display_name, join_time, leave_time, duration_minutes)
				VALUES (?, ?, ?, ?, ?)`,
				e.Key, e.Key, fmtTime(joined), fmtTime(now), e.Minutes); err != nil {
				return imported, fmt.Errorf("migrate playtime for %s: %w", e.Key, err)
			}
		}
		imported++
	}

	if imported > 0 {
		logging.Info().Int("players", imported).Msg("Imported legacy flat-file player data")
	}
	return imported, nil
}
