// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Metadata is omitted on cacheable read responses: the edge cache derives
// a content ETag from the serialized body, so the body must not carry
// volatile fields like a generation timestamp.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"products": [...]}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "invalid width parameter",
//	    "details": {"field": "width"}
//	  },
//	  "metadata": {"timestamp": "2026-09-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata *Metadata   `json:"metadata,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability. Only attached to
// responses that are never cached.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is a structured error payload with a machine-readable code.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Machine-readable error codes returned by the gateway.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeAuthentication      = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization       = "AUTHORIZATION_ERROR"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewSuccessResponse wraps a payload in the success envelope. No metadata:
// success bodies must stay byte-stable for ETag derivation.
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Status: "success",
		Data:   data,
	}
}

// NewErrorResponse builds the error envelope for a code and message.
func NewErrorResponse(code, message string, details interface{}) APIResponse {
	return APIResponse{
		Status: "error",
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: &Metadata{Timestamp: time.Now().UTC()},
	}
}
