// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package models

import (
	"strings"
	"time"
)

// Player is one identity that has ever connected to the server.
type Player struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Session is one contiguous presence interval for a player. LeaveTime
// and DurationMinutes are nil while the session is open.
type Session struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"userId"`
	DisplayName     string     `json:"displayName"`
	JoinTime        time.Time  `json:"joinTime"`
	LeaveTime       *time.Time `json:"leaveTime,omitempty"`
	DurationMinutes *float64   `json:"durationMinutes,omitempty"`
}

// PlayerStats aggregates one player's lifetime activity.
type PlayerStats struct {
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName"`
	FirstSeen    time.Time `json:"firstSeen"`
	LastSeen     time.Time `json:"lastSeen"`
	SessionCount int       `json:"sessionCount"`
	TotalMinutes float64   `json:"totalMinutes"`
	Online       bool      `json:"online"`
}

// DailyStat is one day's activity rollup for the panel charts.
type DailyStat struct {
	Day           string  `json:"day"`
	UniquePlayers int     `json:"uniquePlayers"`
	SessionCount  int     `json:"sessionCount"`
	TotalMinutes  float64 `json:"totalMinutes"`
}

// NormalizeKey canonicalizes a player identifier: leading and trailing
// whitespace is removed and internal runs collapse to a single space.
// An all-whitespace input normalizes to the empty string, which callers
// treat as unusable.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
