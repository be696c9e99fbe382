// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package api

import (
	"errors"
	"net/http"

	"github.com/mwalcott/storegate/internal/models"
	"github.com/mwalcott/storegate/internal/store"
)

// mapStoreError translates a content-store error into an HTTP status and
// error code. Messages stay generic: a 404 never reveals whether the
// resource exists outside the caller's scope, and upstream failures never
// leak internals.
func mapStoreError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, models.ErrCodeNotFound, "resource not found"
	case errors.Is(err, store.ErrBadPayload):
		return http.StatusBadGateway, models.ErrCodeUpstreamUnavailable, "upstream returned an invalid response"
	default:
		return http.StatusInternalServerError, models.ErrCodeUpstreamUnavailable, "upstream service unavailable"
	}
}
