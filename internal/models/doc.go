// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package models defines the shared domain types for Palward: players,
// sessions, and the aggregate statistics views served by the panel API.
//
// The player key is the single identity used everywhere (online tracking,
// session rows, playtime accounting). It is produced by NormalizeKey and is
// never empty; callers filter unusable identifiers before they reach any
// store or tracker.
package models
