// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package database implements the durable session store on SQLite.
//
// Two tables carry all state: players (one row per identity ever seen)
// and sessions (one row per presence interval). The store enforces the
// at-most-one-open-session invariant at the query level: OpenSession
// refuses when an open row already exists and CloseSession targets only
// the most recent open row.
package database
