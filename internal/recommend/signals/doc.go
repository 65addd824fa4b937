// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

// Package signals implements the component scorers for the hybrid
// recommendation engine.
//
//   - Trending: interaction volume within a trailing window, rank-normalized
//   - ContentBased: overlap with the user's rating-weighted, recency-decayed tag profile
//   - CaseBased: overlap with the user's favorite real-world cases
//   - Collaborative: neighbor-user ratings, with a popularity fallback
//   - NewRelease: recency bonus for recent catalog additions
//
// Every signal returns raw scores in [0,1] and is safe for concurrent
// use. Signals never mutate storage.
package signals
