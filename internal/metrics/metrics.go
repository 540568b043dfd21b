// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollsTotal counts presence poll ticks by outcome.
	// result: success, skipped (process not running), error (source down).
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "presence_polls_total",
		Help:      "Presence reconciliation poll ticks by result",
	}, []string{"result"})

	// PlayerJoins counts detected join events.
	PlayerJoins = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "player_joins_total",
		Help:      "Detected player join events",
	})

	// PlayerLeaves counts detected leave events.
	PlayerLeaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "player_leaves_total",
		Help:      "Detected player leave events",
	})

	// OnlinePlayers tracks the current online player count.
	OnlinePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "palward",
		Name:      "online_players",
		Help:      "Players currently online",
	})

	// SessionsOpened counts sessions opened in the store.
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "sessions_opened_total",
		Help:      "Sessions opened",
	})

	// SessionsClosed counts sessions closed in the store.
	SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "sessions_closed_total",
		Help:      "Sessions closed",
	})

	// LifecycleTransitions counts controller state transitions.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "lifecycle_transitions_total",
		Help:      "Lifecycle controller state transitions",
	}, []string{"from", "to"})

	// ForcedStops counts executions of the forced-stop terminal path.
	ForcedStops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "forced_stops_total",
		Help:      "Forced stop executions, including safety-timer fallbacks",
	})

	// BackupRuns counts backup executions by result.
	BackupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "backup_runs_total",
		Help:      "Backup executions by result",
	}, []string{"result"})

	// CircuitBreakerState exposes the breaker state per client
	// (0 closed, 1 half-open, 2 open).
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "palward",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	// CircuitBreakerTransitions counts breaker state transitions.
	CircuitBreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "circuit_breaker_transitions_total",
		Help:      "Circuit breaker state transitions",
	}, []string{"name", "from", "to"})

	// CircuitBreakerConsecutiveFailures tracks the current failure streak.
	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "palward",
		Name:      "circuit_breaker_consecutive_failures",
		Help:      "Consecutive failures recorded by the circuit breaker",
	}, []string{"name"})

	// CircuitBreakerRequests counts requests through the breaker by result.
	CircuitBreakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "palward",
		Name:      "circuit_breaker_requests_total",
		Help:      "Requests through the circuit breaker by result",
	}, []string{"name", "result"})
)
