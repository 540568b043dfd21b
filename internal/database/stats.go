// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/palward/internal/models"
)

// PlayerStats returns lifetime aggregates for every known player,
// ordered by total playtime descending. Open sessions mark the player
// online and contribute their elapsed time as of now so the panel shows
// live totals.
func (db *DB) PlayerStats(ctx context.Context, now time.Time) ([]models.PlayerStats, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT p.user_id, p.display_name, p.first_seen, p.last_seen,
			COUNT(s.id) AS session_count,
			COALESCE(SUM(s.duration_minutes), 0) AS closed_minutes
		FROM players p
		LEFT JOIN sessions s ON s.user_id = p.user_id
		GROUP BY p.user_id
		ORDER BY closed_minutes DESC, p.display_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query player stats: %w", err)
	}
	defer closeRows(rows)

	var stats []models.PlayerStats
	byUser := make(map[string]int)
	for rows.Next() {
		var (
			ps        models.PlayerStats
			firstSeen string
			lastSeen  string
		)
		if err := rows.Scan(&ps.UserID, &ps.DisplayName, &firstSeen, &lastSeen, &ps.SessionCount, &ps.TotalMinutes); err != nil {
			return nil, fmt.Errorf("scan player stats row: %w", err)
		}

		if ps.FirstSeen, err = parseTime(firstSeen); err != nil {
			return nil, err
		}
		if ps.LastSeen, err = parseTime(lastSeen); err != nil {
			return nil, err
		}

		byUser[ps.UserID] = len(stats)
		stats = append(stats, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player stats rows: %w", err)
	}

	// Fold in elapsed time from open sessions.
	open, err := db.OpenSessions(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range open {
		idx, ok := byUser[s.UserID]
		if !ok {
			continue
		}
		stats[idx].Online = true
		elapsed := now.Sub(s.JoinTime).Minutes()
		if elapsed > 0 {
			stats[idx].TotalMinutes += elapsed
		}
	}

	// The fold above can reorder players relative to the stored totals.
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalMinutes > stats[j].TotalMinutes
	})

	return stats, nil
}

// TotalMinutesFor returns one player's accumulated playtime in minutes,
// including the elapsed portion of an open session.
func (db *DB) TotalMinutesFor(ctx context.Context, userID string, now time.Time) (float64, error) {
	var closed float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration_minutes), 0)
		FROM sessions
		WHERE user_id = ? AND leave_time IS NOT NULL`, userID).Scan(&closed)
	if err != nil {
		return 0, fmt.Errorf("sum playtime for %s: %w", userID, err)
	}

	var joinTime sql.NullString
	err = db.conn.QueryRowContext(ctx, `
		SELECT join_time FROM sessions
		WHERE user_id = ? AND leave_time IS NULL
		ORDER BY join_time DESC, id DESC
		LIMIT 1`, userID).Scan(&joinTime)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("find open session for %s: %w", userID, err)
	}

	if joinTime.Valid {
		joined, err := parseTime(joinTime.String)
		if err != nil {
			return 0, err
		}
		if elapsed := now.Sub(joined).Minutes(); elapsed > 0 {
			closed += elapsed
		}
	}
	return closed, nil
}

// DailyStats rolls up session activity per calendar day (UTC) within the
// last days before now, newest first. Open sessions contribute their
// elapsed time as of now to the day they started, the same live rule
// PlayerStats applies.
func (db *DB) DailyStats(ctx context.Context, days int, now time.Time) ([]models.DailyStat, error) {
	cutoff := now.AddDate(0, 0, -days)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT substr(join_time, 1, 10) AS day,
			COUNT(DISTINCT user_id) AS unique_players,
			COUNT(id) AS session_count,
			COALESCE(SUM(duration_minutes), 0) AS total_minutes
		FROM sessions
		WHERE join_time >= ?
		GROUP BY day
		ORDER BY day DESC`, fmtTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}
	defer closeRows(rows)

	var stats []models.DailyStat
	byDay := make(map[string]int)
	for rows.Next() {
		var d models.DailyStat
		if err := rows.Scan(&d.Day, &d.UniquePlayers, &d.SessionCount, &d.TotalMinutes); err != nil {
			return nil, fmt.Errorf("scan daily stats row: %w", err)
		}
		byDay[d.Day] = len(stats)
		stats = append(stats, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats rows: %w", err)
	}

	// Open sessions have a NULL duration, so the SUM above misses them.
	open, err := db.OpenSessions(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range open {
		idx, ok := byDay[s.JoinTime.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		if elapsed := now.Sub(s.JoinTime).Minutes(); elapsed > 0 {
			stats[idx].TotalMinutes += elapsed
		}
	}

	return stats, nil
}

// Players returns every known player identity ordered by last_seen
// descending.
func (db *DB) Players(ctx context.Context) ([]models.Player, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, display_name, first_seen, last_seen
		FROM players
		ORDER BY last_seen DESC`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer closeRows(rows)

	var players []models.Player
	for rows.Next() {
		var (
			p         models.Player
			firstSeen string
			lastSeen  string
		)
		if err := rows.Scan(&p.UserID, &p.DisplayName, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		if p.FirstSeen, err = parseTime(firstSeen); err != nil {
			return nil, err
		}
		if p.LastSeen, err = parseTime(lastSeen); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player rows: %w", err)
	}
	return players, nil
}
