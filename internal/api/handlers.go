// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package api

import (
	"net"
	"net/http"
	"time"

	"github.com/tomtom215/palward/internal/auth"
	"github.com/tomtom215/palward/internal/presence"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	switch err := s.verifier.Verify(addr, req.Password); {
	case err == nil:
	case err == auth.ErrRateLimited:
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	default:
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.jwt.GenerateToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.jwt.SessionTimeout().Seconds()),
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int(s.jwt.SessionTimeout().Seconds()),
	})
}

type statusResponse struct {
	State        string                   `json:"state"`
	Running      bool                     `json:"running"`
	APIAvailable bool                     `json:"api_available"`
	OnlineCount  int                      `json:"online_count"`
	Players      []presence.OnlinePlayer  `json:"players"`
	Logs         []string                 `json:"logs"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	apiUp := false
	if s.game != nil {
		apiUp, _ = s.game.Available()
	}
	online := s.tracker.Online()
	if online == nil {
		online = []presence.OnlinePlayer{}
	}
	logs := s.ctrl.Ring().Lines()
	if logs == nil {
		logs = []string{}
	}
	writeJSON(w, http.StatusOK, statusResponse{
		State:        s.ctrl.State().String(),
		Running:      s.ctrl.Running(r.Context()),
		APIAvailable: apiUp,
		OnlineCount:  len(online),
		Players:      online,
		Logs:         logs,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs := s.ctrl.Ring().Lines()
	if logs == nil {
		logs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"logs": logs})
}

type playersResponse struct {
	Online        []presence.OnlinePlayer `json:"online"`
	EverConnected []string                `json:"ever_connected"`
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	online := s.tracker.Online()
	if online == nil {
		online = []presence.OnlinePlayer{}
	}
	ever := s.tracker.EverConnected()
	if ever == nil {
		ever = []string{}
	}
	writeJSON(w, http.StatusOK, playersResponse{Online: online, EverConnected: ever})
}

type announceRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	if s.game == nil {
		writeError(w, http.StatusServiceUnavailable, "rest api not configured")
		return
	}
	var req announceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if err := s.game.Announce(r.Context(), req.Message); err != nil {
		writeError(w, http.StatusBadGateway, "announcement failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.game == nil {
		writeError(w, http.StatusServiceUnavailable, "rest api not configured")
		return
	}
	if err := s.game.Save(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "save failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// secretMask replaces secret setting values in responses. An update
// carrying the mask back is ignored rather than written to disk.
const secretMask = "********"

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusServiceUnavailable, "settings file not configured")
		return
	}
	entries, err := s.settings.View(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	for i := range entries {
		if entries[i].Secret {
			if entries[i].Value != "" {
				entries[i].Value = secretMask
			}
			if entries[i].LiveValue != "" {
				entries[i].LiveValue = secretMask
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": entries})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusServiceUnavailable, "settings file not configured")
		return
	}
	var changes map[string]string
	if !decodeJSON(w, r, &changes) {
		return
	}
	for key, value := range changes {
		if value == secretMask {
			delete(changes, key)
		}
	}
	if len(changes) == 0 {
		writeError(w, http.StatusBadRequest, "no changes supplied")
		return
	}
	if err := s.settings.Update(changes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"note": "changes apply on next server start",
	})
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}
	names, err := s.backups.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"backups": names})
}

func (s *Server) handleRunBackup(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}
	start := time.Now()
	dest, err := s.backups.RunNow(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dest":    dest,
		"took_ms": time.Since(start).Milliseconds(),
	})
}
