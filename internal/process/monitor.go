// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package process

import (
	"context"
	"fmt"
	"strings"

	gops "github.com/shirou/gopsutil/v4/process"

	"github.com/tomtom215/palward/internal/logging"
)

// Monitor reports on and terminates OS processes matching the configured
// image name. Matching is a case-insensitive substring match, so a
// configured "PalServer" finds PalServer.exe on Windows and
// PalServer-Linux-Test on Linux.
type Monitor struct {
	imageName string
}

// NewMonitor creates a Monitor for the given process image name.
func NewMonitor(imageName string) *Monitor {
	return &Monitor{imageName: strings.ToLower(imageName)}
}

// ImageName returns the configured image name.
func (m *Monitor) ImageName() string {
	return m.imageName
}

// Pids returns the PIDs of all matching processes.
func (m *Monitor) Pids(ctx context.Context) ([]int32, error) {
	procs, err := gops.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var pids []int32
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Processes can exit between enumeration and inspection.
			continue
		}
		if strings.Contains(strings.ToLower(name), m.imageName) {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

// Running reports whether at least one matching process exists.
//
// Enumeration failure is treated as no match: the error is logged and
// returned alongside false so callers fail open the same way a missing
// process would behave.
func (m *Monitor) Running(ctx context.Context) (bool, error) {
	pids, err := m.Pids(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Process enumeration failed, treating as not running")
		return false, err
	}
	return len(pids) > 0, nil
}

// KillAll force-terminates every matching process, retrying each once.
// Returns the number of processes signalled and the last error seen.
func (m *Monitor) KillAll(ctx context.Context) (int, error) {
	pids, err := m.Pids(ctx)
	if err != nil {
		return 0, err
	}

	var lastErr error
	killed := 0
	for _, pid := range pids {
		p, err := gops.NewProcessWithContext(ctx, pid)
		if err != nil {
			// Already gone.
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			// One retry; the process may be mid-exit or briefly protected.
			if err2 := p.KillWithContext(ctx); err2 != nil {
				logging.Warn().Int32("pid", pid).Err(err2).Msg("Failed to kill process")
				lastErr = err2
				continue
			}
		}
		killed++
	}
	return killed, lastErr
}
