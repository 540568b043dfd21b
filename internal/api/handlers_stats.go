// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/palward/internal/models"
)

// queryInt reads an integer query parameter with a default and a cap.
func queryInt(r *http.Request, name string, def, ceiling int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.PlayerStats(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load player stats")
		return
	}
	if stats == nil {
		stats = []models.PlayerStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": stats})
}

func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30, 365)
	daily, err := s.store.DailyStats(r.Context(), days, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load daily stats")
		return
	}
	if daily == nil {
		daily = []models.DailyStat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": daily})
}

func (s *Server) handleRecentSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 500)
	sessions, err := s.store.RecentSessions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handlePlayerSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "player id is required")
		return
	}
	limit := queryInt(r, "limit", 50, 500)
	sessions, err := s.store.SessionsForPlayer(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}
