// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/coldcaselabs/coldcase/internal/logging"
)

// Server runs the HTTP listener as a supervised service. A fresh
// http.Server is built per Serve call so supervisor restarts work; a
// shut-down http.Server cannot be reused.
type Server struct {
	cfg     Config
	handler http.Handler
}

// NewServer creates the supervised HTTP server.
func NewServer(cfg Config, handler http.Handler) *Server {
	return &Server{cfg: cfg, handler: handler}
}

// String names the service in supervisor logs.
func (s *Server) String() string { return "http-server" }

// Serve listens until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Err(err).Msg("http server shutdown")
			return err
		}
		logging.Info().Msg("http server stopped")
		return ctx.Err()
	}
}
