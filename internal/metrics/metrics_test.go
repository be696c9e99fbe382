// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/products", "200"))
	RecordAPIRequest("GET", "/api/v1/products", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/products", "200"))
	if after != before+1 {
		t.Errorf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+1 {
		t.Errorf("expected gauge %v, got %v", base+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("expected gauge %v, got %v", base, got)
	}
}

func TestRecordStoreRequestError(t *testing.T) {
	before := testutil.ToFloat64(StoreRequestErrors.WithLabelValues("products", "upstream"))
	RecordStoreRequest("products", 5*time.Millisecond, errors.New("boom"))
	after := testutil.ToFloat64(StoreRequestErrors.WithLabelValues("products", "upstream"))
	if after != before+1 {
		t.Errorf("expected error counter to increment, got %v -> %v", before, after)
	}
}
