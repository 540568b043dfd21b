// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package palapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/palward/internal/config"
)

func breakerClientFor(t *testing.T, srv *httptest.Server) *BreakerClient {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewBreakerClient(&config.RestAPIConfig{
		Host:     u.Hostname(),
		Port:     port,
		Username: "admin",
		Password: "secret",
		Timeout:  5 * time.Second,
	})
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"players":[{"name":"Alice","userId":"steam_1"}]}`))
	}))
	defer srv.Close()

	bc := breakerClientFor(t, srv)

	players, err := bc.GetPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "steam_1", players[0].Key())
}

func TestBreakerPreservesErrorTaxonomy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	bc := breakerClientFor(t, srv)

	_, err := bc.GetPlayers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// The breaker must not open while the game server is simply down.
// Otherwise the poller would stop probing and miss the restart.
func TestBreakerStaysClosedWhileUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	bc := breakerClientFor(t, srv)

	for i := 0; i < 20; i++ {
		_, err := bc.GetPlayers(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnreachable, "breaker should pass through unreachable errors, not reject")
	}
}
