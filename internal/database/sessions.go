// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/palward/internal/metrics"
	"github.com/tomtom215/palward/internal/models"
)

// ErrSessionAlreadyOpen indicates OpenSession was called for a player
// who already has an open session row.
var ErrSessionAlreadyOpen = errors.New("player already has an open session")

// ErrNoOpenSession indicates CloseSession found nothing to close.
var ErrNoOpenSession = errors.New("player has no open session")

// UpsertPlayer records a player sighting: inserts the identity on first
// contact, otherwise refreshes last_seen and the display name.
func (db *DB) UpsertPlayer(ctx context.Context, userID, displayName string, seenAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO players (user_id, display_name, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			last_seen    = excluded.last_seen`,
		userID, displayName, fmtTime(seenAt), fmtTime(seenAt))
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", userID, err)
	}
	return nil
}

// OpenSession starts a presence interval for the player. Fails with
// ErrSessionAlreadyOpen if one is already open, preserving the
// one-open-session-per-player invariant.
func (db *DB) OpenSession(ctx context.Context, userID, displayName string, joinTime time.Time) (int64, error) {
	open, err := db.HasOpenSession(ctx, userID)
	if err != nil {
		return 0, err
	}
	if open {
		return 0, fmt.Errorf("%w: %s", ErrSessionAlreadyOpen, userID)
	}

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sessions (user_id, display_name, join_time)
		VALUES (?, ?, ?)`,
		userID, displayName, fmtTime(joinTime))
	if err != nil {
		return 0, fmt.Errorf("open session for %s: %w", userID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("open session for %s: %w", userID, err)
	}

	metrics.SessionsOpened.Inc()
	return id, nil
}

// CloseSession ends the player's most recent open session at leaveTime
// and computes the stored duration. Durations clamp at zero if clock
// skew would make them negative.
func (db *DB) CloseSession(ctx context.Context, userID string, leaveTime time.Time) error {
	var (
		id       int64
		joinTime string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, join_time FROM sessions
		WHERE user_id = ? AND leave_time IS NULL
		ORDER BY join_time DESC, id DESC
		LIMIT 1`, userID).Scan(&id, &joinTime)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNoOpenSession, userID)
	}
	if err != nil {
		return fmt.Errorf("find open session for %s: %w", userID, err)
	}

	joined, err := parseTime(joinTime)
	if err != nil {
		return err
	}
	minutes := leaveTime.Sub(joined).Minutes()
	if minutes < 0 {
		minutes = 0
	}

	_, err = db.conn.ExecContext(ctx, `
		UPDATE sessions SET leave_time = ?, duration_minutes = ?
		WHERE id = ?`,
		fmtTime(leaveTime), minutes, id)
	if err != nil {
		return fmt.Errorf("close session %d: %w", id, err)
	}

	metrics.SessionsClosed.Inc()
	return nil
}

// HasOpenSession reports whether the player has an open session row.
func (db *DB) HasOpenSession(ctx context.Context, userID string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx, `
		SELECT 1 FROM sessions
		WHERE user_id = ? AND leave_time IS NULL
		LIMIT 1`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check open session for %s: %w", userID, err)
	}
	return true, nil
}

// OpenSessions returns every open session, oldest first.
func (db *DB) OpenSessions(ctx context.Context) ([]models.Session, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, display_name, join_time, leave_time, duration_minutes
		FROM sessions
		WHERE leave_time IS NULL
		ORDER BY join_time ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query open sessions: %w", err)
	}
	defer closeRows(rows)

	return scanSessions(rows)
}

// CloseStaleSessions closes every open session at closedAt. Called once
// at startup so sessions left open by a crash do not accrue unbounded
// playtime. Returns the number of rows closed.
func (db *DB) CloseStaleSessions(ctx context.Context, closedAt time.Time) (int, error) {
	open, err := db.OpenSessions(ctx)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, s := range open {
		if err := db.CloseSession(ctx, s.UserID, closedAt); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// RecentSessions returns the newest sessions first, up to limit.
func (db *DB) RecentSessions(ctx context.Context, limit int) ([]models.Session, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, display_name, join_time, leave_time, duration_minutes
		FROM sessions
		ORDER BY join_time DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	defer closeRows(rows)

	return scanSessions(rows)
}

// SessionsForPlayer returns the player's sessions, newest first, up to
// limit.
func (db *DB) SessionsForPlayer(ctx context.Context, userID string, limit int) ([]models.Session, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, display_name, join_time, leave_time, duration_minutes
		FROM sessions
		WHERE user_id = ?
		ORDER BY join_time DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions for %s: %w", userID, err)
	}
	defer closeRows(rows)

	return scanSessions(rows)
}

// CountPlayers returns the number of known player identities.
func (db *DB) CountPlayers(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

// scanSessions drains a sessions cursor with the canonical column order.
func scanSessions(rows *sql.Rows) ([]models.Session, error) {
	var sessions []models.Session
	for rows.Next() {
		var (
			s         models.Session
			joinTime  string
			leaveTime sql.NullString
			duration  sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.DisplayName, &joinTime, &leaveTime, &duration); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}

		joined, err := parseTime(joinTime)
		if err != nil {
			return nil, err
		}
		s.JoinTime = joined

		if leaveTime.Valid {
			left, err := parseTime(leaveTime.String)
			if err != nil {
				return nil, err
			}
			s.LeaveTime = &left
		}
		if duration.Valid {
			d := duration.Float64
			s.DurationMinutes = &d
		}

		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return sessions, nil
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}
