// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tomtom215/palward/internal/clock"
	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/logging"
	"github.com/tomtom215/palward/internal/metrics"
	"github.com/tomtom215/palward/internal/process"
)

// ControlAPI is the REST API surface the controller drives.
type ControlAPI interface {
	Announce(ctx context.Context, message string) error
	Save(ctx context.Context) error
	Shutdown(ctx context.Context, waitSeconds int, message string) error
	Stop(ctx context.Context) error
	Available() (bool, error)
}

// ProcessMonitor observes and kills processes by image name.
type ProcessMonitor interface {
	Running(ctx context.Context) (bool, error)
	KillAll(ctx context.Context) (int, error)
}

// Launcher spawns the executable and holds the child handle.
type Launcher interface {
	Start(output io.Writer, onExit func(err error)) error
	KillHeld() error
	Release()
}

// Controller implements the lifecycle state machine over the REST API,
// the process monitor, and the launcher. All operations return a Result
// rather than panicking or propagating API errors; failures fall back
// toward the forced-stop terminal path.
type Controller struct {
	cfg      *config.LifecycleConfig
	api      ControlAPI
	monitor  ProcessMonitor
	launcher Launcher
	clk      clock.Clock
	ring     *RingLog

	mu    sync.Mutex
	state State
	gen   uint64
}

// NewController creates a Controller. The initial state is derived from
// the monitor on first use, not at construction.
func NewController(cfg *config.LifecycleConfig, api ControlAPI, monitor ProcessMonitor, launcher Launcher, clk clock.Clock, ring *RingLog) *Controller {
	return &Controller{
		cfg:      cfg,
		api:      api,
		monitor:  monitor,
		launcher: launcher,
		clk:      clk,
		ring:     ring,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ring returns the process output ring log.
func (c *Controller) Ring() *RingLog {
	return c.ring
}

// Running reports live process state from the monitor.
func (c *Controller) Running(ctx context.Context) bool {
	running, _ := c.monitor.Running(ctx)
	return running
}

// genNow returns the current process incarnation. Safety timers capture
// it when armed and no-op if a newer Start has happened by the time they
// fire, so a timer from a stop cannot kill the process of a subsequent
// restart.
func (c *Controller) genNow() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Controller) setState(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()

	if from != to {
		logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("Lifecycle state changed")
		metrics.LifecycleTransitions.WithLabelValues(from.String(), to.String()).Inc()
	}
}

// markStopped records the process as gone and drops the child handle.
func (c *Controller) markStopped() {
	c.setState(StateStopped)
	c.launcher.Release()
}

// Start launches the game server. A process that already appears
// running is re-checked after a short grace delay before failing with
// ErrAlreadyRunning, covering the race where a just-spawned process has
// not settled yet.
func (c *Controller) Start(ctx context.Context) Result {
	if c.State().Stopping() {
		// A stop whose process is already gone has effectively finished;
		// reconcile instead of blocking the start.
		if running, _ := c.monitor.Running(ctx); running {
			return failure(ErrStopInFlight.Error())
		}
		c.markStopped()
	}

	running, _ := c.monitor.Running(ctx)
	if running {
		if err := c.clk.Sleep(ctx, c.cfg.StartRecheckDelay); err != nil {
			return failure(err.Error())
		}
		if running, _ = c.monitor.Running(ctx); running {
			return failure(ErrAlreadyRunning.Error())
		}
	}

	c.setState(StateStarting)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	err := c.launcher.Start(c.ring, func(error) {
		// An exit callback from a previous incarnation must not clobber
		// the state of a newer one.
		c.mu.Lock()
		stale := gen != c.gen
		c.mu.Unlock()
		if !stale {
			c.markStopped()
		}
	})
	if err != nil {
		c.setState(StateStopped)
		logging.Error().Err(err).Msg("Failed to start game server")
		return failure(fmt.Sprintf("failed to start server: %v", err))
	}

	c.setState(StateRunning)
	return success("server starting")
}

// StopGraceful asks the server to shut down politely with the default
// notice period. A safety timer fires at notice+margin and escalates to
// StopForced if the process is still alive; an immediate request
// failure escalates in the same call.
func (c *Controller) StopGraceful(ctx context.Context) Result {
	if c.State().Stopping() {
		return failure(ErrStopInFlight.Error())
	}
	if running, _ := c.monitor.Running(ctx); !running {
		return failure(ErrNotRunning.Error())
	}

	available, _ := c.api.Available()
	if !available {
		logging.Warn().Msg("Graceful stop without API availability, using forced path")
		return c.StopForced(ctx)
	}

	c.setState(StateStoppingGraceful)

	notice := c.cfg.NoticeSeconds
	if err := c.api.Shutdown(ctx, notice, "Server is shutting down"); err != nil {
		logging.Warn().Err(err).Msg("Graceful shutdown request failed, falling back to forced stop")
		return c.StopForced(ctx)
	}

	deadline := time.Duration(notice)*time.Second + c.cfg.SafetyMargin
	gen := c.genNow()
	c.clk.AfterFunc(deadline, func() {
		if c.genNow() != gen {
			return
		}
		if running, _ := c.monitor.Running(context.Background()); running {
			logging.Warn().Msg("Server still running after graceful notice, forcing stop")
			c.StopForced(context.Background())
			return
		}
		c.markStopped()
	})

	return success(fmt.Sprintf("graceful shutdown requested, %d second notice", notice))
}

// StopWithNotice broadcasts a warning now, sends the shutdown request
// after the announce delay, and arms a safety timer at countdown plus
// the announce delay. The two phases keep the warning visible before
// any server-side countdown starts.
func (c *Controller) StopWithNotice(ctx context.Context, countdownSeconds int) Result {
	if countdownSeconds < 1 {
		countdownSeconds = 1
	}
	if countdownSeconds > 300 {
		countdownSeconds = 300
	}

	if c.State().Stopping() {
		return failure(ErrStopInFlight.Error())
	}
	if running, _ := c.monitor.Running(ctx); !running {
		return failure(ErrNotRunning.Error())
	}

	available, _ := c.api.Available()
	if !available {
		return failure(ErrNoticeUnavailable.Error())
	}

	message := fmt.Sprintf("Server will shut down in %d seconds. Please log out safely.", countdownSeconds)
	if err := c.api.Announce(ctx, message); err != nil {
		logging.Warn().Err(err).Msg("Shutdown announcement failed")
		return failure(ErrNoticeUnavailable.Error())
	}

	c.setState(StateStoppingGraceful)

	gen := c.genNow()
	c.clk.AfterFunc(c.cfg.AnnounceDelay, func() {
		bg := context.Background()
		if c.genNow() != gen {
			return
		}
		if err := c.api.Shutdown(bg, countdownSeconds, message); err != nil {
			logging.Warn().Err(err).Msg("Delayed shutdown request failed, forcing stop shortly")
			c.clk.AfterFunc(c.cfg.SafetyMargin, func() {
				if c.genNow() != gen {
					return
				}
				if running, _ := c.monitor.Running(bg); running {
					c.StopForced(bg)
				}
			})
		}
	})

	deadline := time.Duration(countdownSeconds)*time.Second + c.cfg.AnnounceDelay
	c.clk.AfterFunc(deadline, func() {
		if c.genNow() != gen {
			return
		}
		if running, _ := c.monitor.Running(context.Background()); running {
			logging.Warn().Msg("Server still running after announced countdown, forcing stop")
			c.StopForced(context.Background())
			return
		}
		c.markStopped()
	})

	return success(fmt.Sprintf("shutdown announced, %d second countdown", countdownSeconds))
}

// StopForced is the universal terminal path: API stop if reachable,
// then OS kill by image name with one retry round, then the held child
// handle.
func (c *Controller) StopForced(ctx context.Context) Result {
	c.setState(StateStoppingForced)
	metrics.ForcedStops.Inc()

	if available, _ := c.api.Available(); available {
		if err := c.api.Stop(ctx); err == nil {
			gen := c.genNow()
			c.clk.AfterFunc(c.cfg.SafetyMargin, func() {
				bg := context.Background()
				if c.genNow() != gen {
					return
				}
				if running, _ := c.monitor.Running(bg); running {
					logging.Warn().Msg("API stop did not terminate the server, killing processes")
					c.osKill(bg)
					return
				}
				c.markStopped()
			})
			return success("stop requested via api")
		}
		logging.Warn().Msg("API stop request failed, killing processes")
	}

	c.osKill(ctx)
	return success("force stop executed")
}

// osKill terminates by image name, retries once after a short delay,
// then falls back to the held handle.
func (c *Controller) osKill(ctx context.Context) {
	if killed, err := c.monitor.KillAll(ctx); err != nil {
		logging.Warn().Err(err).Int("killed", killed).Msg("Process kill round reported errors")
	}

	if running, _ := c.monitor.Running(ctx); running {
		_ = c.clk.Sleep(ctx, c.cfg.SafetyMargin)
		_, _ = c.monitor.KillAll(ctx)
	}

	if running, _ := c.monitor.Running(ctx); running {
		if err := c.launcher.KillHeld(); err != nil && !errors.Is(err, process.ErrNotLaunched) {
			logging.Error().Err(err).Msg("Held-handle kill failed")
		}
	}

	c.markStopped()
}

// Restart stops the server gracefully, waits for the stop to complete
// (a longer grace when the API carried it, shorter when only the OS
// path was available), then starts it again. A server that is not
// running is simply started.
func (c *Controller) Restart(ctx context.Context) Result {
	if running, _ := c.monitor.Running(ctx); running {
		available, _ := c.api.Available()

		if res := c.StopGraceful(ctx); !res.OK {
			return res
		}

		wait := c.cfg.RestartWaitFallback
		if available {
			wait = c.cfg.RestartWaitAPI
		}
		if err := c.clk.Sleep(ctx, wait); err != nil {
			return failure(err.Error())
		}
	}

	return c.Start(ctx)
}
