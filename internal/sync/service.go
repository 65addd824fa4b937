// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package sync

import (
	"context"
	"time"

	"github.com/coldcaselabs/coldcase/internal/logging"
)

// Service runs periodic provider syncs under the supervisor tree.
// It implements suture.Service.
type Service struct {
	manager  *Manager
	interval time.Duration
	opts     SyncOptions
}

// NewService creates the periodic sync service.
func NewService(manager *Manager, interval time.Duration, opts SyncOptions) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{manager: manager, interval: interval, opts: opts}
}

// String names the service in supervisor logs.
func (s *Service) String() string { return "provider-sync" }

// Serve runs the sync loop until the context is cancelled. The first
// sync runs immediately so a fresh deployment has a catalog to serve.
func (s *Service) Serve(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	if _, err := s.manager.SyncFromProviders(ctx, s.opts); err != nil {
		logging.Error().Err(err).Msg("periodic provider sync failed")
	}
}
