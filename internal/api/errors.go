// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/storage"
)

// errorResponse is the JSON error envelope for every non-2xx response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v as the response body. Encoding failures are logged
// but not surfaced; the status line has already been written.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Err(err).Msg("encoding response body")
	}
}

// writeError maps an error onto a status code and writes the envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeErrorStatus(w, r, status, err.Error())
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		logger := logging.Ctx(r.Context())
		logger.Error().Int("status", status).Str("path", r.URL.Path).Msg(msg)
	}
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}
