// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

// Package presence converts periodic player-list snapshots from the game
// server's REST API into join and leave events, keeps the in-memory
// online state consistent across source outages, and records sessions in
// the store.
//
// The reconciler treats the API list as authoritative: a player present
// in the response but missing from local state is self-healed into an
// open session, and a fetch failure never infers leaves. Absence of data
// is not absence of players.
package presence
