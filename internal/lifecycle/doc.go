// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package lifecycle controls the external game server process: start,
// graceful stop, announced stop, forced stop, and restart.
//
// Every stop path eventually routes to the forced path if the polite
// mechanism stalls. Safety timers are fire-and-forget deferred checks on
// an injectable clock; they re-check live process state before acting,
// so a timer firing after the condition resolved is a no-op.
package lifecycle
