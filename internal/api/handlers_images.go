// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwalcott/storegate/internal/auth"
	"github.com/mwalcott/storegate/internal/blob"
	"github.com/mwalcott/storegate/internal/images"
	"github.com/mwalcott/storegate/internal/logging"
	"github.com/mwalcott/storegate/internal/models"
	"github.com/mwalcott/storegate/internal/validation"
)

// imageRedirectParams are the ad hoc transform parameters accepted by the
// image redirect endpoint.
type imageRedirectParams struct {
	Width  int    `validate:"omitempty,min=1,max=4096"`
	Height int    `validate:"omitempty,min=1,max=4096"`
	Fit    string `validate:"omitempty,oneof=cover contain fill"`
	Format string `validate:"omitempty,oneof=auto webp avif jpeg png"`
	Key    string `validate:"required,imagekey"`
}

// ImageRedirect handles GET /images/*. The wildcard path is an image
// reference in any stored shape; it is canonicalized and the client is
// redirected to the CDN transform URL. The redirect itself is cacheable
// downstream.
func (h *Handler) ImageRedirect(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	key := h.canon.Canonicalize(raw)

	params := imageRedirectParams{
		Width:  getIntParam(r, "width", 0),
		Height: getIntParam(r, "height", 0),
		Fit:    r.URL.Query().Get("fit"),
		Format: r.URL.Query().Get("format"),
		Key:    key,
	}
	if verr := validation.ValidateStruct(&params); verr != nil {
		respondValidationError(w, verr)
		return
	}

	target := h.resolver.TransformURLWithOptions(key, images.TransformOptions{
		Width:  params.Width,
		Height: params.Height,
		Fit:    params.Fit,
		Format: params.Format,
	})

	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.Redirect(w, r, target, http.StatusFound)
}

// Upload handles POST /api/v1/images: a multipart upload with field
// "file" from a trusted caller. The object lands under a date-partitioned
// key and the response carries only that key — clients never receive a
// URL to persist, which is what keeps stored references canonicalizable.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "invalid multipart payload", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, `multipart field "file" is required`, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "failed to read upload", err)
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "uploaded file is empty", nil)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	id := auth.IdentityFromContext(r.Context())
	uploadedBy := id.UserID
	// A service call may name the acting user in the payload itself; the
	// explicit field outranks the header the resolver saw. Only the
	// internal-key tier gets this: a verified token already proves who is
	// acting.
	if id.AuthType == auth.AuthTypeInternalKey {
		if actor := r.FormValue("user_id"); actor != "" {
			uploadedBy = actor
		}
	}

	key := blob.NewUploadKey(header.Filename, time.Now())

	meta := blob.Meta{
		Key:         key,
		ContentType: contentType,
		UploadedBy:  uploadedBy,
	}
	if err := h.blobs.Put(r.Context(), meta, data); err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to store upload", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("key", key).
		Int("size", len(data)).
		Msg("Accepted upload")

	resp := models.NewSuccessResponse(models.UploadResult{Key: key})
	respondJSON(w, http.StatusCreated, &resp)
}

// ServeImage handles GET /api/v1/images/{key...}, streaming stored bytes
// back out of the blob store. This is the origin endpoint a CDN pulls
// from; browsers normally take the /images redirect instead.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	key := h.canon.Canonicalize(chi.URLParam(r, "*"))
	if key == "" {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "image key is required", nil)
		return
	}

	data, meta, err := h.blobs.Get(r.Context(), key)
	if err != nil {
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "resource not found", nil)
		return
	}

	contentType := "application/octet-stream"
	if meta != nil && meta.ContentType != "" {
		contentType = meta.ContentType
	} else {
		contentType = http.DetectContentType(data)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write image response")
	}
}
