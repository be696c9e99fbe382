// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package store is the gateway's client for the content store's REST
// endpoint. It is the only place upstream payloads are parsed: rows are
// mapped into typed models at this boundary and unrecognized shapes are
// rejected or skipped, never forwarded.
package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mwalcott/storegate/internal/logging"
	"github.com/mwalcott/storegate/internal/metrics"
	"github.com/mwalcott/storegate/internal/models"
)

// maxResponseBody bounds how much of a store response is read.
const maxResponseBody = 8 << 20

// Scope narrows store queries to the caller's visibility: published rows
// for everyone, plus the caller's own rows when the identity is trusted.
type Scope struct {
	// OwnerID is the resolved user id, empty for anonymous callers.
	OwnerID string

	// IncludeUnpublished widens the query to the owner's unpublished
	// rows. Only ever set for trusted identities.
	IncludeUnpublished bool
}

// Client is the content-store read interface consumed by the route
// handlers. One canonical fetch path per resource.
type Client interface {
	ListProducts(ctx context.Context, scope Scope) (*models.ProductList, error)
	GetProduct(ctx context.Context, scope Scope, id string) (*models.Product, error)
	ListCollections(ctx context.Context, scope Scope) (*models.CollectionList, error)
	GetCollection(ctx context.Context, scope Scope, id string) (*models.Collection, error)
	ListRecipes(ctx context.Context, scope Scope) (*models.RecipeList, error)
	GetRecipe(ctx context.Context, scope Scope, id string) (*models.Recipe, error)
	ListTags(ctx context.Context) (*models.TagList, error)
	GetSettings(ctx context.Context) (*models.Settings, error)
	Ping(ctx context.Context) error
}

// HTTPClient talks to the content store over HTTP with circuit breaker
// protection. Safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	mapper     *Mapper
	cb         *gobreaker.CircuitBreaker[*fetchResult]
}

// fetchResult carries status and body through the circuit breaker. Only
// transport failures and 5xx count as breaker failures; a 404 is a normal
// answer.
type fetchResult struct {
	status int
	body   []byte
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	Mapper     *Mapper
}

// NewHTTPClient creates a content-store client.
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	cbName := "content-store"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*fetchResult](gobreaker.Settings{
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
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &HTTPClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		serviceKey: opts.ServiceKey,
		httpClient: &http.Client{Timeout: opts.Timeout},
		mapper:     opts.Mapper,
		cb:         cb,
	}
}

// get fetches a store path and returns the body. ErrNotFound for 404,
// ErrUnavailable for transport failures, non-2xx and an open breaker.
func (c *HTTPClient) get(ctx context.Context, resource, path string, query url.Values) ([]byte, error) {
	start := time.Now()
	res, err := c.cb.Execute(func() (*fetchResult, error) {
		return c.fetch(ctx, path, query)
	})
	metrics.RecordStoreRequest(resource, time.Since(start), err)

	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("resource", resource).Msg("Content store request failed")
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resource)
	}
	if res.status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	return res.body, nil
}

func (c *HTTPClient) fetch(ctx context.Context, path string, query url.Values) (*fetchResult, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build store request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read store response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &fetchResult{status: resp.StatusCode}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("store returned status %d", resp.StatusCode)
	}
	return &fetchResult{status: resp.StatusCode, body: body}, nil
}

// scopeQuery translates a Scope into store query parameters.
func scopeQuery(scope Scope) url.Values {
	q := url.Values{}
	if scope.OwnerID != "" {
		q.Set("owner_id", scope.OwnerID)
	}
	if scope.IncludeUnpublished {
		q.Set("include_unpublished", "true")
	}
	return q
}

// ListProducts returns products visible in scope, image fields resolved
// for list rendering.
func (c *HTTPClient) ListProducts(ctx context.Context, scope Scope) (*models.ProductList, error) {
	body, err := c.get(ctx, "products", "/products", scopeQuery(scope))
	if err != nil {
		return nil, err
	}

	var rows []productRow
	if err := decodeRows(body, &rows); err != nil {
		return nil, err
	}

	list := &models.ProductList{Products: make([]models.Product, 0, len(rows))}
	for _, row := range rows {
		p, err := c.mapper.Product(row, "list")
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Skipping malformed product row")
			continue
		}
		list.Products = append(list.Products, p)
	}
	list.Total = len(list.Products)
	return list, nil
}

// GetProduct returns one product by id, image fields resolved for detail
// rendering.
func (c *HTTPClient) GetProduct(ctx context.Context, scope Scope, id string) (*models.Product, error) {
	body, err := c.get(ctx, "products", "/products/"+url.PathEscape(id), scopeQuery(scope))
	if err != nil {
		return nil, err
	}

	var row productRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	p, err := c.mapper.Product(row, "detail")
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCollections returns collections visible in scope.
func (c *HTTPClient) ListCollections(ctx context.Context, scope Scope) (*models.CollectionList, error) {
	body, err := c.get(ctx, "collections", "/collections", scopeQuery(scope))
	if err != nil {
		return nil, err
	}

	var rows []collectionRow
	if err := decodeRows(body, &rows); err != nil {
		return nil, err
	}

	list := &models.CollectionList{Collections: make([]models.Collection, 0, len(rows))}
	for _, row := range rows {
		col, err := c.mapper.Collection(row)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Skipping malformed collection row")
			continue
		}
		list.Collections = append(list.Collections, col)
	}
	list.Total = len(list.Collections)
	return list, nil
}

// GetCollection returns one collection by id.
func (c *HTTPClient) GetCollection(ctx context.Context, scope Scope, id string) (*models.Collection, error) {
	body, err := c.get(ctx, "collections", "/collections/"+url.PathEscape(id), scopeQuery(scope))
	if err != nil {
		return nil, err
	}

	var row collectionRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	col, err := c.mapper.Collection(row)
	if err != nil {
		return nil, err
	}
	return &col, nil
}

// ListRecipes returns recipes visible in scope.
func (c *HTTPClient) ListRecipes(ctx context.Context, scope Scope) (*models.RecipeList, error) {
	body, err := c.get(ctx, "recipes", "/recipes", scopeQuery(scope))
	if err != nil {
		return nil, err
	}

	var rows []recipeRow
	if err := decodeRows(body, &rows); err != nil {
		return nil, err
	}

	list := &models.RecipeList{Recipes: make([]models.Recipe, 0, len(rows))}
	for _, row := range rows {
		rec, err := c.mapper.Recipe(row, "list")
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Skipping malformed recipe row")
			continue
		}
		list.Recipes = append(list.Recipes, rec)
	}
	list.Total = len(list.Recipes)
	return list, nil
}

// GetRecipe returns one recipe by id.
func (c *HTTPClient) GetRecipe(ctx context.Context, scope Scope, id string) (*models.Recipe, error) {
	body, err := c.get(ctx, "recipes", "/recipes/"+url.PathEscape(id), scopeQuery(scope))
	if err != nil {
		return nil, err
	}

	var row recipeRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	rec, err := c.mapper.Recipe(row, "recipe")
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListTags returns all tags. Tags carry no scope: they are global labels.
func (c *HTTPClient) ListTags(ctx context.Context) (*models.TagList, error) {
	body, err := c.get(ctx, "tags", "/tags", nil)
	if err != nil {
		return nil, err
	}

	var rows []tagRow
	if err := decodeRows(body, &rows); err != nil {
		return nil, err
	}

	list := &models.TagList{Tags: make([]models.Tag, 0, len(rows))}
	for _, row := range rows {
		tag, err := c.mapper.Tag(row)
		if err != nil {
			continue
		}
		list.Tags = append(list.Tags, tag)
	}
	list.Total = len(list.Tags)
	return list, nil
}

// GetSettings returns the storefront settings document.
func (c *HTTPClient) GetSettings(ctx context.Context) (*models.Settings, error) {
	body, err := c.get(ctx, "settings", "/settings", nil)
	if err != nil {
		return nil, err
	}

	var row settingsRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	s := c.mapper.Settings(row)
	return &s, nil
}

// Ping probes store reachability for readiness checks.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "settings", "/settings", nil)
	return err
}

// decodeRows unmarshals a list body, accepting either a bare JSON array
// or an {"items": [...]} wrapper.
func decodeRows[T any](body []byte, out *[]T) error {
	if err := json.Unmarshal(body, out); err == nil {
		return nil
	}
	var wrapped struct {
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	*out = wrapped.Items
	return nil
}

// Verify interface implementation at compile time
var _ Client = (*HTTPClient)(nil)
