// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package store

import (
	"fmt"
	"time"

	"github.com/mwalcott/storegate/internal/images"
	"github.com/mwalcott/storegate/internal/models"
)

// Row types mirror the content store's wire shapes. Image fields arrive
// as raw references in any of the historical formats (full URLs, proxy
// URLs, bucket-prefixed keys); the mapper canonicalizes them before
// anything leaves this package.

type productRow struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Published   bool     `json:"published"`
	Position    int      `json:"position"`
	Tags        []string `json:"tags"`
	Image       string   `json:"image"`
	Gallery     []string `json:"gallery"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type collectionRow struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Published   bool     `json:"published"`
	Position    int      `json:"position"`
	ProductIDs  []string `json:"product_ids"`
	HeaderImage string   `json:"header_image"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type recipeRow struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Published   bool     `json:"published"`
	Image       string   `json:"image"`
	Attachments []string `json:"attachments"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type tagRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Position int    `json:"position"`
}

type pinRow struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	TargetID string `json:"target_id"`
	Position int    `json:"position"`
	Image    string `json:"image"`
}

type settingsRow struct {
	StoreName   string            `json:"store_name"`
	Tagline     string            `json:"tagline"`
	Currency    string            `json:"currency"`
	Links       map[string]string `json:"links"`
	LogoImage   string            `json:"logo_image"`
	HeaderImage string            `json:"header_image"`
	Pins        []pinRow          `json:"pins"`
	UpdatedAt   string            `json:"updated_at"`
}

// Mapper converts store rows into outward models. All image references
// pass through canonicalization and variant resolution here; raw
// references never reach a handler.
type Mapper struct {
	canon    *images.Canonicalizer
	resolver *images.Resolver
}

// NewMapper creates a row mapper.
func NewMapper(canon *images.Canonicalizer, resolver *images.Resolver) *Mapper {
	return &Mapper{canon: canon, resolver: resolver}
}

// variant canonicalizes a raw reference and resolves it for a usage.
// Returns nil for empty references so absent images serialize as null.
func (m *Mapper) variant(raw, usage string) *images.Variant {
	key := m.canon.Canonicalize(raw)
	if key == "" {
		return nil
	}
	v := m.resolver.Resolve(key, usage)
	return &v
}

func (m *Mapper) variants(raws []string, usage string) []images.Variant {
	if len(raws) == 0 {
		return nil
	}
	out := make([]images.Variant, 0, len(raws))
	for _, raw := range raws {
		if v := m.variant(raw, usage); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Product maps a product row. The usage selects image widths: "list" for
// listings, "detail" for single fetches. Rows without an id or name are
// rejected rather than forwarded.
func (m *Mapper) Product(row productRow, usage string) (models.Product, error) {
	if row.ID == "" || row.Name == "" {
		return models.Product{}, fmt.Errorf("%w: product row missing id or name", ErrBadPayload)
	}
	return models.Product{
		ID:          row.ID,
		Slug:        row.Slug,
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		Currency:    row.Currency,
		Published:   row.Published,
		Position:    row.Position,
		Tags:        row.Tags,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
		MainImage:   m.variant(row.Image, usage),
		Gallery:     m.variants(row.Gallery, "gallery"),
	}, nil
}

// Collection maps a collection row.
func (m *Mapper) Collection(row collectionRow) (models.Collection, error) {
	if row.ID == "" || row.Title == "" {
		return models.Collection{}, fmt.Errorf("%w: collection row missing id or title", ErrBadPayload)
	}
	return models.Collection{
		ID:          row.ID,
		Slug:        row.Slug,
		Title:       row.Title,
		Description: row.Description,
		Published:   row.Published,
		Position:    row.Position,
		ProductIDs:  row.ProductIDs,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
		HeaderImage: m.variant(row.HeaderImage, "header-large"),
	}, nil
}

// Recipe maps a recipe row.
func (m *Mapper) Recipe(row recipeRow, usage string) (models.Recipe, error) {
	if row.ID == "" || row.Title == "" {
		return models.Recipe{}, fmt.Errorf("%w: recipe row missing id or title", ErrBadPayload)
	}
	return models.Recipe{
		ID:          row.ID,
		Slug:        row.Slug,
		Title:       row.Title,
		Body:        row.Body,
		Published:   row.Published,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
		MainImage:   m.variant(row.Image, usage),
		Attachments: m.variants(row.Attachments, "attachment"),
	}, nil
}

// Tag maps a tag row.
func (m *Mapper) Tag(row tagRow) (models.Tag, error) {
	if row.ID == "" || row.Name == "" {
		return models.Tag{}, fmt.Errorf("%w: tag row missing id or name", ErrBadPayload)
	}
	return models.Tag{
		ID:       row.ID,
		Name:     row.Name,
		Slug:     row.Slug,
		Position: row.Position,
	}, nil
}

// Settings maps the settings document. Settings has no required fields;
// a partial document maps to a partial result. Pins without an id or
// target are dropped.
func (m *Mapper) Settings(row settingsRow) models.Settings {
	var pins []models.Pin
	for _, p := range row.Pins {
		if p.ID == "" || p.TargetID == "" {
			continue
		}
		pins = append(pins, models.Pin{
			ID:       p.ID,
			Kind:     p.Kind,
			TargetID: p.TargetID,
			Position: p.Position,
			Image:    m.variant(p.Image, "list"),
		})
	}

	return models.Settings{
		StoreName:   row.StoreName,
		Tagline:     row.Tagline,
		Currency:    row.Currency,
		Links:       row.Links,
		Pins:        pins,
		UpdatedAt:   parseTime(row.UpdatedAt),
		LogoImage:   m.variant(row.LogoImage, "avatar"),
		HeaderImage: m.variant(row.HeaderImage, "header-large"),
	}
}

// parseTime accepts RFC3339 timestamps, tolerating the store's occasional
// empty string. Zero time serializes away via omitempty.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
