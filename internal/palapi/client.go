// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package palapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/models"
)

// API defines the Palworld REST API operations used by the rest of the
// management plane. Both Client and BreakerClient implement it.
type API interface {
	GetPlayers(ctx context.Context) ([]Player, error)
	GetSettings(ctx context.Context) (map[string]any, error)
	Announce(ctx context.Context, message string) error
	Save(ctx context.Context) error
	Shutdown(ctx context.Context, waitSeconds int, message string) error
	Stop(ctx context.Context) error
	Available() (bool, error)
}

// Ensure Client implements API.
var _ API = (*Client)(nil)

// Player is one entry from the /players endpoint.
type Player struct {
	Name        string  `json:"name"`
	AccountName string  `json:"accountName"`
	PlayerID    string  `json:"playerId"`
	UserID      string  `json:"userId"`
	IP          string  `json:"ip"`
	Ping        float64 `json:"ping"`
	LocationX   float64 `json:"location_x"`
	LocationY   float64 `json:"location_y"`
	Level       int     `json:"level"`
}

// Key returns the stable identity used for presence tracking. The API
// sometimes reports players before their userId is assigned, so fall
// back through playerId and accountName.
func (p Player) Key() string {
	for _, candidate := range []string{p.UserID, p.PlayerID, p.AccountName} {
		if k := models.NormalizeKey(candidate); k != "" {
			return k
		}
	}
	return ""
}

// DisplayName returns the best human-readable name available.
func (p Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.AccountName != "" {
		return p.AccountName
	}
	return p.Key()
}

type playersResponse struct {
	Players []Player `json:"players"`
}

// Client provides access to the Palworld REST API using HTTP Basic auth.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	mu          sync.RWMutex
	available   bool
	lastErr     error
	lastChecked time.Time
}

// NewClient creates a Palworld REST API client from the REST section of
// the runtime config.
func NewClient(cfg *config.RestAPIConfig) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL(), "/") + "/v1/api",
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// GetPlayers retrieves the current online player list.
func (c *Client) GetPlayers(ctx context.Context) ([]Player, error) {
	body, err := c.do(ctx, http.MethodGet, "/players", nil)
	if err != nil {
		return nil, err
	}

	var resp playersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		err = fmt.Errorf("%w: decode players: %v", ErrMalformedResponse, err)
		c.record(err)
		return nil, err
	}
	return resp.Players, nil
}

// GetSettings retrieves the server's live settings as reported by the API.
func (c *Client) GetSettings(ctx context.Context) (map[string]any, error) {
	body, err := c.do(ctx, http.MethodGet, "/settings", nil)
	if err != nil {
		return nil, err
	}

	var settings map[string]any
	if err := json.Unmarshal(body, &settings); err != nil {
		err = fmt.Errorf("%w: decode settings: %v", ErrMalformedResponse, err)
		c.record(err)
		return nil, err
	}
	return settings, nil
}

// Announce broadcasts a message to all connected players.
func (c *Client) Announce(ctx context.Context, message string) error {
	_, err := c.do(ctx, http.MethodPost, "/announce", map[string]any{
		"message": message,
	})
	return err
}

// Save asks the server to persist the world immediately.
func (c *Client) Save(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/save", nil)
	return err
}

// Shutdown requests a graceful shutdown after waitSeconds, showing
// message to connected players in the meantime.
func (c *Client) Shutdown(ctx context.Context, waitSeconds int, message string) error {
	_, err := c.do(ctx, http.MethodPost, "/shutdown", map[string]any{
		"waittime": waitSeconds,
		"message":  message,
	})
	return err
}

// Stop terminates the server process immediately without saving.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/stop", nil)
	return err
}

// Available reports whether the most recent API call succeeded, and the
// error from that call when it did not. Before any call has been made it
// reports unavailable with a nil error.
func (c *Client) Available() (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available, c.lastErr
}

// do performs one API request and classifies the failure mode. The
// request body, when non-nil, is JSON-encoded.
func (c *Client) do(ctx context.Context, method, endpoint string, payload map[string]any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUnreachable, err)
		c.record(err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		err = ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		err = &HTTPError{Code: resp.StatusCode}
	case readErr != nil:
		err = fmt.Errorf("%w: read body: %v", ErrMalformedResponse, readErr)
	}
	if err != nil {
		c.record(err)
		return nil, err
	}

	c.record(nil)
	return body, nil
}

// record updates the availability snapshot after a call.
func (c *Client) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = err == nil
	c.lastErr = err
	c.lastChecked = time.Now()
}
