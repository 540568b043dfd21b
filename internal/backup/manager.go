// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package backup

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tomtom215/palward/internal/clock"
	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/logging"
	"github.com/tomtom215/palward/internal/metrics"
)

// snapshotLayout names snapshot directories sortably by creation time.
const snapshotLayout = "20060102-150405"

// Saver requests a world save before the files are copied. Failures are
// tolerated: the snapshot still runs on whatever is on disk.
type Saver interface {
	Save(ctx context.Context) error
	Available() (bool, error)
}

// Manager copies the save directory into timestamped snapshots under
// the backup root and prunes old ones.
type Manager struct {
	cfg   config.BackupConfig
	saver Saver
	clk   clock.Clock

	mu sync.Mutex
}

// NewManager creates a backup manager. saver may be nil when no REST
// API is configured.
func NewManager(cfg config.BackupConfig, saver Saver, clk clock.Clock) *Manager {
	return &Manager{cfg: cfg, saver: saver, clk: clk}
}

// RunNow takes one snapshot and prunes expired ones. Concurrent calls
// serialize; the save directory is copied exactly once per call.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.Enabled() {
		return "", fmt.Errorf("backups are not configured")
	}

	m.requestSave(ctx)

	stamp := m.clk.Now().UTC().Format(snapshotLayout)
	dest := filepath.Join(m.cfg.Root, stamp)

	start := m.clk.Now()
	if err := copyTree(m.cfg.SavePath, dest); err != nil {
		metrics.BackupRuns.WithLabelValues("error").Inc()
		os.RemoveAll(dest)
		return "", fmt.Errorf("snapshot failed: %w", err)
	}
	metrics.BackupRuns.WithLabelValues("success").Inc()
	logging.Info().
		Str("dest", dest).
		Dur("took", m.clk.Now().Sub(start)).
		Msg("Backup snapshot complete")

	if pruned, err := m.prune(); err != nil {
		logging.Warn().Err(err).Msg("Backup retention sweep failed")
	} else if pruned > 0 {
		logging.Info().Int("pruned", pruned).Msg("Expired backups removed")
	}
	return dest, nil
}

// List returns existing snapshot directory names, newest first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.Root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup root: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && isSnapshotName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	// Lexicographic descending equals newest first for this layout.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}

// requestSave asks the running server to flush the world to disk.
func (m *Manager) requestSave(ctx context.Context) {
	if m.saver == nil {
		return
	}
	if ok, _ := m.saver.Available(); !ok {
		return
	}
	if err := m.saver.Save(ctx); err != nil {
		logging.Warn().Err(err).Msg("Pre-backup save failed, copying current files")
		return
	}
	// Give the server a moment to finish flushing before the copy.
	m.clk.Sleep(ctx, 2*time.Second)
}

// prune deletes snapshot directories older than MaxAge, judged by the
// timestamp in the directory name rather than filesystem mtimes.
func (m *Manager) prune() (int, error) {
	if m.cfg.MaxAge <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(m.cfg.Root)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup root: %w", err)
	}
	cutoff := m.clk.Now().UTC().Add(-m.cfg.MaxAge)
	pruned := 0
	for _, e := range entries {
		if !e.IsDir() || !isSnapshotName(e.Name()) {
			continue
		}
		created, err := time.Parse(snapshotLayout, e.Name())
		if err != nil {
			continue
		}
		if created.Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(m.cfg.Root, e.Name())); err != nil {
				return pruned, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
			}
			pruned++
		}
	}
	return pruned, nil
}

func isSnapshotName(name string) bool {
	_, err := time.Parse(snapshotLayout, name)
	return err == nil
}

// copyTree copies src recursively into dst, preserving the directory
// structure. Symlinks are skipped; game saves do not contain them.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o750)
		case !d.Type().IsRegular():
			return nil
		default:
			return copyFile(path, target)
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Service runs periodic snapshots. It implements suture.Service.
type Service struct {
	manager  *Manager
	clk      clock.Clock
	interval time.Duration
}

// NewService wraps a manager in a periodic runner.
func NewService(manager *Manager, clk clock.Clock, interval time.Duration) *Service {
	return &Service{manager: manager, clk: clk, interval: interval}
}

// Serve takes a snapshot every interval until ctx is done.
func (s *Service) Serve(ctx context.Context) error {
	for {
		if err := s.clk.Sleep(ctx, s.interval); err != nil {
			return err
		}
		if _, err := s.manager.RunNow(ctx); err != nil {
			logging.Error().Err(err).Msg("Scheduled backup failed")
		}
	}
}

// String names the service for supervisor logs.
func (s *Service) String() string {
	return "backup-service"
}
