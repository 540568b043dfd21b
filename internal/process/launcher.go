// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/logging"
)

// ErrNotLaunched indicates no child handle is held, either because the
// server was never started by this daemon or the handle was released.
var ErrNotLaunched = errors.New("no launched process handle held")

// Launcher starts the game server executable and retains the child
// process handle. The handle survives until Release or a new Start, so
// the forced-stop path can kill the exact process this daemon spawned
// even when enumeration by image name comes up empty.
type Launcher struct {
	cfg *config.GameConfig

	mu   sync.Mutex
	proc *os.Process
}

// NewLauncher creates a Launcher for the configured executable.
func NewLauncher(cfg *config.GameConfig) *Launcher {
	return &Launcher{cfg: cfg}
}

// Start spawns the server executable. Combined stdout and stderr are
// copied to output (may be nil to discard). onExit, if non-nil, runs
// once when the child exits, receiving the Wait error.
//
// The child is not otherwise tied to this daemon's lifetime; the
// Monitor observes it by image name like any externally started
// instance.
func (l *Launcher) Start(output io.Writer, onExit func(err error)) error {
	cmd := exec.Command(l.cfg.ExecutablePath, l.cfg.Args...)
	cmd.Dir = l.cfg.ResolvedWorkingDir()
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", l.cfg.ExecutablePath, err)
	}

	l.mu.Lock()
	l.proc = cmd.Process
	l.mu.Unlock()

	logging.Info().Int("pid", cmd.Process.Pid).Str("path", l.cfg.ExecutablePath).Msg("Game server process started")

	// Reap the child so it never zombies, then notify.
	go func() {
		err := cmd.Wait()
		if err != nil {
			logging.Warn().Err(err).Msg("Game server process exited")
		} else {
			logging.Info().Msg("Game server process exited cleanly")
		}
		if onExit != nil {
			onExit(err)
		}
	}()

	return nil
}

// Pid returns the held child's PID, or ErrNotLaunched.
func (l *Launcher) Pid() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.proc == nil {
		return 0, ErrNotLaunched
	}
	return l.proc.Pid, nil
}

// KillHeld kills the held child process, if any. Used as the final
// fallback after API stop and kill-by-name both failed.
func (l *Launcher) KillHeld() error {
	l.mu.Lock()
	proc := l.proc
	l.mu.Unlock()

	if proc == nil {
		return ErrNotLaunched
	}
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("kill pid %d: %w", proc.Pid, err)
	}
	return nil
}

// Release drops the held handle. Called once the process is confirmed
// gone so a stale handle cannot kill an unrelated reused PID.
func (l *Launcher) Release() {
	l.mu.Lock()
	l.proc = nil
	l.mu.Unlock()
}
