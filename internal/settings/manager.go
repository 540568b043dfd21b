// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tomtom215/palward/internal/logging"
)

// LiveSource reports the running server's effective settings. It is nil
// or unavailable when the server is down, in which case the file alone
// is authoritative.
type LiveSource interface {
	GetSettings(ctx context.Context) (map[string]any, error)
	Available() (bool, error)
}

// Entry is one setting as presented to the panel: its schema definition,
// the value from the ini file, and the running server's live value when
// one could be read.
type Entry struct {
	Definition
	Value string `json:"value"`

	// LiveValue is what the running server reports, empty when the
	// server is down or does not report this key. It can differ from
	// Value when the file was edited after the last server start.
	LiveValue string `json:"live_value,omitempty"`
}

// Manager mediates reads and writes of the settings file and overlays
// live values from the game's REST API.
type Manager struct {
	path string
	live LiveSource

	mu sync.Mutex
}

// NewManager creates a manager for the ini file at path. live may be
// nil when no REST API is configured.
func NewManager(path string, live LiveSource) *Manager {
	return &Manager{path: path, live: live}
}

// Load parses the settings file. A missing file yields all defaults.
func (m *Manager) Load() (*File, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	f, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", m.path, err)
	}
	return f, nil
}

// Save writes the file atomically via a temp file and rename.
func (m *Manager) Save(f *File) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".palworldsettings-*")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(f.Serialize()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp settings file: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// View returns every schema setting with file values and, when the
// server is reachable, the live values it reports. Live fetch failures
// degrade to a file-only view rather than erroring the whole request.
func (m *Manager) View(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.Load()
	if err != nil {
		return nil, err
	}

	liveValues := m.fetchLive(ctx)

	entries := make([]Entry, 0, len(Schema))
	for _, d := range Schema {
		e := Entry{Definition: d, Value: f.GetOrDefault(d.Key)}
		if v, ok := liveValues[d.Key]; ok {
			e.LiveValue = formatLive(v)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Update validates and applies changes to the file. All changes are
// validated before any is written, so a bad value leaves the file
// untouched. Changes take effect on the next server start.
func (m *Manager) Update(changes map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.Load()
	if err != nil {
		return err
	}

	staged := make(map[string]string, len(changes))
	for key, value := range changes {
		d, ok := Lookup(key)
		if !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
		canonical, err := d.Validate(value)
		if err != nil {
			return err
		}
		staged[key] = canonical
	}
	for key, canonical := range staged {
		if err := f.Set(key, canonical); err != nil {
			return err
		}
	}

	if err := m.Save(f); err != nil {
		return err
	}
	logging.Info().Int("changed", len(staged)).Msg("Settings file updated")
	return nil
}

func (m *Manager) fetchLive(ctx context.Context) map[string]any {
	if m.live == nil {
		return nil
	}
	if ok, _ := m.live.Available(); !ok {
		return nil
	}
	values, err := m.live.GetSettings(ctx)
	if err != nil {
		logging.Debug().Err(err).Msg("Live settings unavailable")
		return nil
	}
	return values
}

// formatLive renders a JSON-decoded live value in the ini's notation.
func formatLive(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', 6, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
