// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/palward/internal/clock"
	"github.com/tomtom215/palward/internal/config"
)

type fakeSaver struct {
	available bool
	saves     int
	err       error
}

func (f *fakeSaver) Save(context.Context) error {
	f.saves++
	return f.err
}

func (f *fakeSaver) Available() (bool, error) {
	return f.available, nil
}

func newTestManager(t *testing.T, saver Saver, maxAge time.Duration) (*Manager, config.BackupConfig, *clock.Fake) {
	t.Helper()
	savePath := filepath.Join(t.TempDir(), "SaveGames")
	require.NoError(t, os.MkdirAll(filepath.Join(savePath, "0", "world"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(savePath, "Level.sav"), []byte("level-data"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(savePath, "0", "world", "Player.sav"), []byte("player-data"), 0o640))

	cfg := config.BackupConfig{
		SavePath: savePath,
		Root:     filepath.Join(t.TempDir(), "backups"),
		Interval: 3 * time.Hour,
		MaxAge:   maxAge,
	}
	clk := clock.NewFake(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	return NewManager(cfg, saver, clk), cfg, clk
}

func TestRunNowCopiesTree(t *testing.T) {
	saver := &fakeSaver{available: true}
	m, _, _ := newTestManager(t, saver, 24*time.Hour)

	dest, err := m.RunNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, saver.saves, "world save requested before the copy")

	data, err := os.ReadFile(filepath.Join(dest, "Level.sav"))
	require.NoError(t, err)
	assert.Equal(t, "level-data", string(data))

	data, err = os.ReadFile(filepath.Join(dest, "0", "world", "Player.sav"))
	require.NoError(t, err)
	assert.Equal(t, "player-data", string(data))
}

func TestRunNowWithoutAPIStillSnapshots(t *testing.T) {
	saver := &fakeSaver{available: false}
	m, _, _ := newTestManager(t, saver, 24*time.Hour)

	_, err := m.RunNow(context.Background())
	require.NoError(t, err)
	assert.Zero(t, saver.saves, "no save request while the server is down")
}

func TestRunNowToleratesSaveFailure(t *testing.T) {
	saver := &fakeSaver{available: true, err: assert.AnError}
	m, _, _ := newTestManager(t, saver, 24*time.Hour)

	_, err := m.RunNow(context.Background())
	require.NoError(t, err, "a failed save must not block the snapshot")
}

func TestRunNowRequiresConfiguration(t *testing.T) {
	m := NewManager(config.BackupConfig{}, nil, clock.New())

	_, err := m.RunNow(context.Background())
	assert.Error(t, err)
}

func TestPruneRemovesExpiredSnapshots(t *testing.T) {
	m, cfg, clk := newTestManager(t, nil, 24*time.Hour)

	// Two stale snapshots and one fresh, named by creation time.
	stale1 := clk.Now().UTC().Add(-48 * time.Hour).Format(snapshotLayout)
	stale2 := clk.Now().UTC().Add(-25 * time.Hour).Format(snapshotLayout)
	fresh := clk.Now().UTC().Add(-1 * time.Hour).Format(snapshotLayout)
	for _, name := range []string{stale1, stale2, fresh} {
		require.NoError(t, os.MkdirAll(filepath.Join(cfg.Root, name), 0o750))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Root, "not-a-snapshot"), 0o750))

	_, err := m.RunNow(context.Background())
	require.NoError(t, err)

	names, err := m.List()
	require.NoError(t, err)
	assert.NotContains(t, names, stale1)
	assert.NotContains(t, names, stale2)
	assert.Contains(t, names, fresh)

	_, err = os.Stat(filepath.Join(cfg.Root, "not-a-snapshot"))
	assert.NoError(t, err, "directories that are not snapshots are left alone")
}

func TestListNewestFirst(t *testing.T) {
	m, cfg, clk := newTestManager(t, nil, 0)

	older := clk.Now().UTC().Add(-2 * time.Hour).Format(snapshotLayout)
	newer := clk.Now().UTC().Add(-1 * time.Hour).Format(snapshotLayout)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Root, older), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Root, newer), 0o750))

	names, err := m.List()
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, newer, names[0])
	assert.Equal(t, older, names[1])
}

func TestListMissingRoot(t *testing.T) {
	m := NewManager(config.BackupConfig{Root: filepath.Join(t.TempDir(), "nope")}, nil, clock.New())

	names, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestServiceRunsOnInterval(t *testing.T) {
	saver := &fakeSaver{available: true}
	m, cfg, clk := newTestManager(t, saver, 0)
	svc := NewService(m, clk, cfg.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	require.Eventually(t, func() bool {
		names, err := m.List()
		return err == nil && len(names) >= 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
