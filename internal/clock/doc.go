// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package clock abstracts wall-clock reads and deferred task scheduling so
// components that depend on time (safety timers, restart waits, session
// durations) can be unit tested with a fake clock instead of real sleeps.
package clock
