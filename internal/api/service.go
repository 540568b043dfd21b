// Palward - Palworld Dedicated Server Management Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palward

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/palward/internal/config"
	"github.com/tomtom215/palward/internal/logging"
)

// Service runs the panel HTTP listener under the supervisor. It
// implements suture.Service.
type Service struct {
	cfg     config.ServerConfig
	handler http.Handler
}

// NewService wraps a handler with the configured listener settings.
func NewService(cfg config.ServerConfig, handler http.Handler) *Service {
	return &Service{cfg: cfg, handler: handler}
}

// Serve listens until ctx is done, then drains in-flight requests.
func (s *Service) Serve(ctx context.Context) error {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       2 * timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Panel HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("HTTP shutdown incomplete, closing")
		srv.Close()
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		logging.Debug().Err(err).Msg("HTTP server exit")
	}
	return ctx.Err()
}

// String names the service for supervisor logs.
func (s *Service) String() string {
	return "http-server"
}
