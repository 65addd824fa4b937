// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package api serves the HTTP surface: fan-out search, catalog sync,
// per-user recommendations, health, and Prometheus metrics.
//
// Routing is chi with per-IP rate limiting on the /api/v1 group.
// Handlers depend on narrow interfaces so tests stub the sync manager
// and recommendation engine directly.
package api
