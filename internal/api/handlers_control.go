// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package api

import (
	"net/http"

	"github.com/tomtom215/palward/internal/lifecycle"
)

type controlResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	State   string `json:"state"`
}

// writeResult maps a lifecycle result to a response. Refused requests
// (already running, nothing to stop, a stop already in flight) are
// conflicts, not server errors.
func (s *Server) writeResult(w http.ResponseWriter, res lifecycle.Result) {
	status := http.StatusOK
	if !res.OK {
		status = http.StatusConflict
	}
	writeJSON(w, status, controlResponse{
		OK:      res.OK,
		Message: res.Message,
		State:   s.ctrl.State().String(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, s.ctrl.Start(r.Context()))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, s.ctrl.StopGraceful(r.Context()))
}

type stopNoticeRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleStopWithNotice(w http.ResponseWriter, r *http.Request) {
	var req stopNoticeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.writeResult(w, s.ctrl.StopWithNotice(r.Context(), req.Seconds))
}

func (s *Server) handleForceStop(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, s.ctrl.StopForced(r.Context()))
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, s.ctrl.Restart(r.Context()))
}
