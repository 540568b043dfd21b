// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package palapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/logging"
	"github.com/tomtom215/palward/internal/metrics"
)

// BreakerClient wraps Client with a circuit breaker so a misbehaving
// REST API (hanging sockets, garbage responses) cannot stall every
// caller in the management plane.
//
// ErrUnreachable deliberately does not count as a breaker failure: the
// game server being down is an expected state, and the poller must keep
// probing at full rate to notice the moment it comes back.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// Ensure BreakerClient implements API.
var _ API = (*BreakerClient)(nil)

// NewBreakerClient creates a Palworld API client with circuit breaker
// protection. The breaker opens after a 60% failure rate over at least
// 10 requests and probes recovery after 30 seconds.
func NewBreakerClient(cfg *config.RestAPIConfig) *BreakerClient {
	cbName := "palworld-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnreachable)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerClient{
		client: NewClient(cfg),
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps one API call with circuit breaker protection.
func (bc *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
			// Rejections look like an unreachable API to callers.
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
		counts := bc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(bc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(bc.name).Set(0)
	return result, nil
}

// castResult type-casts a breaker result with error checking.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GetPlayers retrieves the online player list with breaker protection.
func (bc *BreakerClient) GetPlayers(ctx context.Context) ([]Player, error) {
	return castResult[[]Player](bc.execute(func() (any, error) {
		return bc.client.GetPlayers(ctx)
	}))
}

// GetSettings retrieves live server settings with breaker protection.
func (bc *BreakerClient) GetSettings(ctx context.Context) (map[string]any, error) {
	return castResult[map[string]any](bc.execute(func() (any, error) {
		return bc.client.GetSettings(ctx)
	}))
}

// Announce broadcasts a message with breaker protection.
func (bc *BreakerClient) Announce(ctx context.Context, message string) error {
	_, err := bc.execute(func() (any, error) {
		return nil, bc.client.Announce(ctx, message)
	})
	return err
}

// Save requests a world save with breaker protection.
func (bc *BreakerClient) Save(ctx context.Context) error {
	_, err := bc.execute(func() (any, error) {
		return nil, bc.client.Save(ctx)
	})
	return err
}

// Shutdown requests a graceful shutdown with breaker protection.
func (bc *BreakerClient) Shutdown(ctx context.Context, waitSeconds int, message string) error {
	_, err := bc.execute(func() (any, error) {
		return nil, bc.client.Shutdown(ctx, waitSeconds, message)
	})
	return err
}

// Stop requests an immediate termination with breaker protection.
func (bc *BreakerClient) Stop(ctx context.Context) error {
	_, err := bc.execute(func() (any, error) {
		return nil, bc.client.Stop(ctx)
	})
	return err
}

// Available reports the wrapped client's availability snapshot.
func (bc *BreakerClient) Available() (bool, error) {
	return bc.client.Available()
}
