// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package metrics defines the Prometheus collectors used across the
// service. All collectors are registered with promauto at package init
// and exposed through the /metrics endpoint.
package metrics
