// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package models defines the gateway's outward-facing resource shapes and
// the standard response envelope. Content-store rows are mapped into these
// types at the store boundary; arbitrary upstream shapes are never
// forwarded to clients.
package models

import (
	"time"

	"github.com/mwalcott/storegate/internal/images"
)

// Product is a storefront catalog item. MainImage and Gallery carry
// resolved delivery URLs, never raw storage references.
type Product struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency,omitempty"`
	Published   bool      `json:"published"`
	Position    int       `json:"position,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	MainImage *images.Variant  `json:"main_image,omitempty"`
	Gallery   []images.Variant `json:"gallery,omitempty"`
}

// Collection groups products under a themed header.
type Collection struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Published   bool      `json:"published"`
	Position    int       `json:"position,omitempty"`
	ProductIDs  []string  `json:"product_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	HeaderImage *images.Variant `json:"header_image,omitempty"`
}

// Recipe is an editorial content page with step attachments.
type Recipe struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MainImage   *images.Variant  `json:"main_image,omitempty"`
	Attachments []images.Variant `json:"attachments,omitempty"`
}

// Tag is a flat label attached to products and recipes.
type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Position int    `json:"position,omitempty"`
}

// Pin is a curated placement on the storefront home page pointing at a
// product, collection or recipe.
type Pin struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	TargetID string `json:"target_id"`
	Position int    `json:"position"`

	Image *images.Variant `json:"image,omitempty"`
}

// Settings is the storefront-wide settings document.
type Settings struct {
	StoreName string            `json:"store_name"`
	Tagline   string            `json:"tagline,omitempty"`
	Currency  string            `json:"currency,omitempty"`
	Links     map[string]string `json:"links,omitempty"`
	Pins      []Pin             `json:"pins,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`

	LogoImage   *images.Variant `json:"logo_image,omitempty"`
	HeaderImage *images.Variant `json:"header_image,omitempty"`
}

// ProductList is the payload for product listings.
type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// CollectionList is the payload for collection listings.
type CollectionList struct {
	Collections []Collection `json:"collections"`
	Total       int          `json:"total"`
}

// RecipeList is the payload for recipe listings.
type RecipeList struct {
	Recipes []Recipe `json:"recipes"`
	Total   int      `json:"total"`
}

// TagList is the payload for tag listings.
type TagList struct {
	Tags  []Tag `json:"tags"`
	Total int   `json:"total"`
}

// UploadResult is the upload response payload. Deliberately key-only:
// persisting full URLs downstream is what canonicalization exists to undo.
type UploadResult struct {
	Key string `json:"key"`
}
