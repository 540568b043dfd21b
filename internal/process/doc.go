// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package process observes and controls the external game server process.
//
// The Monitor answers "is the server running" by enumerating OS processes
// by image name, which works whether the process was launched by this
// daemon or by an operator out of band. The Launcher starts the process
// and keeps the child handle so the forced-stop path has a last-resort
// kill target even if enumeration fails.
package process
