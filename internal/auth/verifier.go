// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mwalcott/storegate/internal/cache"
	"github.com/mwalcott/storegate/internal/logging"
	"github.com/mwalcott/storegate/internal/metrics"
)

// introspectionPath is appended to the provider base URL to reach the
// user-introspection endpoint.
const introspectionPath = "/auth/v1/user"

// maxIntrospectionBody bounds how much of the provider response is read.
const maxIntrospectionBody = 64 << 10

// TokenVerifier turns a bearer/cookie token into a user id by calling the
// identity provider's introspection endpoint.
//
// Verification failure is a value, not an error: non-2xx responses, network
// failures and an open circuit all resolve to an empty user id. Results,
// including negative ones, are memoized so a hot token costs at most one
// introspection call per TTL window.
type TokenVerifier struct {
	providerURL string
	httpClient  *http.Client
	memo        cache.Cacher
	memoTTL     time.Duration
	cb          *gobreaker.CircuitBreaker[string]
}

// VerifierOptions configures a TokenVerifier.
type VerifierOptions struct {
	ProviderURL  string
	Timeout      time.Duration
	MemoTTL      time.Duration
	MemoCapacity int
}

// NewTokenVerifier creates a verifier for the given identity provider.
func NewTokenVerifier(opts VerifierOptions) *TokenVerifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MemoTTL <= 0 {
		opts.MemoTTL = 60 * time.Second
	}
	if opts.MemoCapacity <= 0 {
		opts.MemoCapacity = 10000
	}

	cbName := "identity-introspection"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &TokenVerifier{
		providerURL: strings.TrimRight(opts.ProviderURL, "/"),
		httpClient:  &http.Client{Timeout: opts.Timeout},
		memo:        cache.NewLRU(opts.MemoCapacity, opts.MemoTTL),
		memoTTL:     opts.MemoTTL,
		cb:          cb,
	}
}

// Verify resolves a token to a user id. Returns empty when the token is
// unverifiable for any reason (invalid token, provider failure, open
// circuit). Never returns an error: callers fall through to the next trust
// tier on an empty result.
func (v *TokenVerifier) Verify(ctx context.Context, token string) string {
	if token == "" || v.providerURL == "" {
		return ""
	}

	key := memoKey(token)
	if cached, ok := v.memo.Get(key); ok {
		metrics.IntrospectionCacheHits.Inc()
		return cached.(string)
	}

	userID, err := v.cb.Execute(func() (string, error) {
		return v.introspect(ctx, token)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Ctx(ctx).Warn().Err(err).Msg("Token introspection rejected by circuit breaker")
		} else {
			logging.Ctx(ctx).Warn().Err(err).Msg("Token introspection failed")
		}
		metrics.IntrospectionRequests.WithLabelValues("error").Inc()
		// A failed call still memoizes a negative result so a flapping
		// provider cannot be hammered with one introspection per request.
		v.memo.Set(key, "")
		return ""
	}

	if userID == "" {
		metrics.IntrospectionRequests.WithLabelValues("unverified").Inc()
	} else {
		metrics.IntrospectionRequests.WithLabelValues("verified").Inc()
	}
	v.memo.Set(key, userID)
	return userID
}

// MemoStats exposes memo cache statistics for health reporting.
func (v *TokenVerifier) MemoStats() cache.Stats {
	return v.memo.GetStats()
}

// introspect performs the provider call. A 401/403 means the token is
// simply invalid (empty id, nil error); other failures are errors so the
// circuit breaker sees them.
func (v *TokenVerifier) introspect(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.providerURL+introspectionPath, nil)
	if err != nil {
		return "", fmt.Errorf("build introspection request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("introspection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("introspection returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIntrospectionBody))
	if err != nil {
		return "", fmt.Errorf("read introspection response: %w", err)
	}

	var payload struct {
		ID     string `json:"id"`
		Sub    string `json:"sub"`
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode introspection response: %w", err)
	}

	switch {
	case payload.ID != "":
		return payload.ID, nil
	case payload.Sub != "":
		return payload.Sub, nil
	default:
		return payload.UserID, nil
	}
}

// memoKey hashes the token so raw credentials never sit in the memo map.
func memoKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
