// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package supervisor builds the suture supervision tree for the panel's
// long-running services. The tree has three layers for failure
// isolation: presence (poller, notifier), scheduled (daily restart,
// backups), and api (HTTP server). A crashing poller restarts without
// taking the HTTP listener down with it.
package supervisor
