// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package backup snapshots the game's save directory into timestamped
// copies and prunes snapshots past their retention age. A world save is
// requested through the REST API before each snapshot when the server
// is reachable, so the copied files are as fresh as possible.
package backup
