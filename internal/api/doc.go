// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package api exposes the panel's HTTP surface: login, server status
// and lifecycle control, presence and playtime statistics, settings
// editing, and backups. Routing uses chi; every data endpoint sits
// behind JWT authentication.
package api
