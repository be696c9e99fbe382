// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package api

import (
	"net/http"
	"time"

	"github.com/mwalcott/storegate/internal/models"
)

// HealthLive handles GET /api/v1/health/live. Process-up probe: always
// 200 while the process can serve requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	resp := models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"state": "alive"},
		Metadata: &models.Metadata{Timestamp: time.Now().UTC()},
	}
	respondJSON(w, http.StatusOK, &resp)
}

// HealthReady handles GET /api/v1/health/ready. Ready means the content
// store answers; the identity provider is deliberately excluded because
// the gateway degrades to anonymous service without it.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		resp := models.NewErrorResponse(models.ErrCodeUpstreamUnavailable, "content store unreachable", nil)
		respondJSON(w, http.StatusServiceUnavailable, &resp)
		return
	}

	resp := models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"state": "ready"},
		Metadata: &models.Metadata{Timestamp: time.Now().UTC()},
	}
	respondJSON(w, http.StatusOK, &resp)
}
