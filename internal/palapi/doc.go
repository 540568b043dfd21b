// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package palapi implements a typed client for the Palworld dedicated
// server REST API (the /v1/api surface enabled via RESTAPIEnabled).
//
// The client distinguishes failure modes so callers can react correctly:
// an unreachable server is routine (the process is simply not running),
// a 401 means misconfigured credentials, and a malformed body means the
// API answered but cannot be trusted. All calls take a context and the
// client records the result of the most recent call for status reporting.
package palapi
