// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package settings reads, validates, and writes the game server's
// PalWorldSettings.ini. Only keys in the fixed schema are editable;
// unknown keys found in the file are preserved verbatim on write so a
// newer game version's settings never get destroyed by an older panel.
package settings
