// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package lifecycle

import "errors"

// State is the controller's view of the managed process.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStoppingGraceful
	StateStoppingForced
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStoppingGraceful:
		return "stopping-graceful"
	case StateStoppingForced:
		return "stopping-forced"
	default:
		return "unknown"
	}
}

// Stopping reports whether a stop operation is in flight.
func (s State) Stopping() bool {
	return s == StateStoppingGraceful || s == StateStoppingForced
}

var (
	// ErrAlreadyRunning indicates Start found a live process even after
	// the grace re-check.
	ErrAlreadyRunning = errors.New("server already running")

	// ErrNotRunning indicates a stop or restart found no live process.
	ErrNotRunning = errors.New("server not running")

	// ErrNoticeUnavailable indicates stop-with-notice cannot reach the
	// REST API to deliver the warning.
	ErrNoticeUnavailable = errors.New("announcement unavailable, rest api unreachable")

	// ErrStopInFlight indicates a conflicting stop is already underway.
	ErrStopInFlight = errors.New("a stop operation is already in flight")
)

// Result is the outcome of a control operation: a success flag plus a
// human-readable reason suitable for the panel.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func success(message string) Result {
	return Result{OK: true, Message: message}
}

func failure(message string) Result {
	return Result{OK: false, Message: message}
}
