// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package palapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/palward/internal/config"
)

// testClient builds a Client pointed at the given test server.
func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewClient(&config.RestAPIConfig{
		Host:     u.Hostname(),
		Port:     port,
		Username: "admin",
		Password: "secret",
		Timeout:  5 * time.Second,
	})
}

func TestGetPlayers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/players", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		_, _ = w.Write([]byte(`{"players":[
			{"name":"Alice","accountName":"alice42","playerId":"p1","userId":"steam_111","level":12},
			{"name":"Bob","accountName":"bobby","playerId":"p2","userId":"steam_222","level":3}
		]}`))
	}))
	defer srv.Close()

	client := testClient(t, srv)

	players, err := client.GetPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "steam_111", players[0].Key())
	assert.Equal(t, "Alice", players[0].DisplayName())
	assert.Equal(t, 3, players[1].Level)

	available, lastErr := client.Available()
	assert.True(t, available)
	assert.NoError(t, lastErr)
}

func TestGetPlayersUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := testClient(t, srv)

	_, err := client.GetPlayers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	available, lastErr := client.Available()
	assert.False(t, available)
	assert.ErrorIs(t, lastErr, ErrUnauthorized)
}

func TestGetPlayersUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := testClient(t, srv)

	_, err := client.GetPlayers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)

	available, _ := client.Available()
	assert.False(t, available)
}

func TestGetPlayersMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	client := testClient(t, srv)

	_, err := client.GetPlayers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetPlayersServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(t, srv)

	_, err := client.GetPlayers(context.Background())
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
}

func TestShutdownPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/api/shutdown", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := testClient(t, srv)

	err := client.Shutdown(context.Background(), 60, "Server restarting")
	require.NoError(t, err)
	assert.Equal(t, float64(60), got["waittime"])
	assert.Equal(t, "Server restarting", got["message"])
}

func TestAnnouncePayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/announce", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := testClient(t, srv)

	require.NoError(t, client.Announce(context.Background(), "hello"))
	assert.Equal(t, "hello", got["message"])
}

func TestSaveAndStopEndpoints(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := testClient(t, srv)

	require.NoError(t, client.Save(context.Background()))
	require.NoError(t, client.Stop(context.Background()))
	assert.Equal(t, []string{"/v1/api/save", "/v1/api/stop"}, paths)
}

func TestGetSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/settings", r.URL.Path)
		_, _ = w.Write([]byte(`{"ServerName":"My Server","ServerPlayerMaxNum":32}`))
	}))
	defer srv.Close()

	client := testClient(t, srv)

	settings, err := client.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "My Server", settings["ServerName"])
	assert.Equal(t, float64(32), settings["ServerPlayerMaxNum"])
}

func TestAvailabilityRecoversAfterSuccess(t *testing.T) {
	fail := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"players":[]}`))
	}))
	defer srv.Close()

	client := testClient(t, srv)

	_, err := client.GetPlayers(context.Background())
	require.Error(t, err)
	available, _ := client.Available()
	assert.False(t, available)

	fail = false
	_, err = client.GetPlayers(context.Background())
	require.NoError(t, err)
	available, lastErr := client.Available()
	assert.True(t, available)
	assert.NoError(t, lastErr)
}

func TestPlayerKeyFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		player Player
		key    string
	}{
		{"user id preferred", Player{UserID: "steam_1", PlayerID: "p1", AccountName: "a"}, "steam_1"},
		{"player id fallback", Player{PlayerID: "p1", AccountName: "a"}, "p1"},
		{"account name fallback", Player{AccountName: "a"}, "a"},
		{"whitespace collapsed", Player{UserID: "  steam  1  "}, "steam 1"},
		{"all empty", Player{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.player.Key())
		})
	}
}

func TestPlayerDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Alice", Player{Name: "Alice", AccountName: "a"}.DisplayName())
	assert.Equal(t, "a", Player{AccountName: "a"}.DisplayName())
	assert.Equal(t, "steam_1", Player{UserID: "steam_1"}.DisplayName())
}
