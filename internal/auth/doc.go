// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package auth implements panel authentication: a single shared panel
// password exchanged for a signed JWT, validated on every API request.
// Login attempts are rate limited per source address.
package auth
