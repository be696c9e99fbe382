// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package store

import "errors"

// Sentinel errors returned by the content-store client. Handlers map them
// to HTTP statuses; the client never decides presentation.
var (
	// ErrNotFound means the resource does not exist or sits outside the
	// caller's scope. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("resource not found")

	// ErrUnavailable means the content store could not be reached or
	// answered outside 2xx/404.
	ErrUnavailable = errors.New("content store unavailable")

	// ErrBadPayload means the store answered 2xx but the body did not
	// match the expected resource shape.
	ErrBadPayload = errors.New("content store returned unexpected payload")
)
