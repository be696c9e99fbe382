// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package images

import (
	"fmt"
	"sort"
	"strings"
)

// Variant is a resolved delivery URL pair. Src points at the largest
// approved width for the usage; SrcSet lists every approved width. For
// pass-through usages SrcSet is empty and Src is the untransformed asset
// URL.
type Variant struct {
	Src    string `json:"src"`
	SrcSet string `json:"srcSet,omitempty"`
}

// UsageOriginal is the pass-through usage: no transform, no srcset.
const UsageOriginal = "original"

// usageWidths maps each usage profile to its fixed, pre-approved pixel
// widths. The set is deliberately small: every width here is a distinct
// derivative the CDN edge must cache.
var usageWidths = map[string][]int{
	"list":         {200, 400},
	"detail":       {400},
	"avatar":       {200},
	"header-large": {800},
	"attachment":   {400, 800},
	"gallery":      {400, 800},
	"recipe":       {400, 800},
	UsageOriginal:  {},
}

// allowedWidths is the ad hoc width set. Requests outside a named usage
// are snapped onto it so the variant space stays bounded.
var allowedWidths = []int{200, 400, 800}

// SnapToAllowed clamps w to [1,4096] and snaps it up to the nearest
// allowed width. Anything above the largest allowed width comes back down
// to it: flexibility is traded for a small, highly cacheable variant set.
func SnapToAllowed(w int) int {
	if w < 1 {
		w = 1
	}
	if w > 4096 {
		w = 4096
	}
	for _, allowed := range allowedWidths {
		if w <= allowed {
			return allowed
		}
	}
	return allowedWidths[len(allowedWidths)-1]
}

// Resolver turns canonical keys into delivery URLs.
type Resolver struct {
	assetsRoot    string
	imagesRoot    string
	transformPath string
	quality       int
}

// NewResolver creates a resolver. assetsRoot serves untransformed
// originals; imagesRoot is the CDN resizer base.
func NewResolver(assetsRoot, imagesRoot, transformPath string, quality int) *Resolver {
	if quality < 1 || quality > 100 {
		quality = 80
	}
	return &Resolver{
		assetsRoot:    strings.TrimRight(assetsRoot, "/"),
		imagesRoot:    strings.TrimRight(imagesRoot, "/"),
		transformPath: strings.Trim(transformPath, "/"),
		quality:       quality,
	}
}

// Resolve derives the delivery variant for a canonical key under a usage
// profile. A pure function: identical inputs always produce identical
// output. Empty keys resolve to the zero Variant. Unknown usages fall
// back to pass-through, the only behavior safe for every context.
func (r *Resolver) Resolve(key, usage string) Variant {
	if key == "" {
		return Variant{}
	}

	widths, ok := usageWidths[usage]
	if !ok || len(widths) == 0 {
		return Variant{Src: r.OriginalURL(key)}
	}

	sorted := make([]int, len(widths))
	copy(sorted, widths)
	sort.Ints(sorted)

	parts := make([]string, 0, len(sorted))
	for _, w := range sorted {
		parts = append(parts, fmt.Sprintf("%s %dw", r.TransformURL(key, w), w))
	}

	return Variant{
		Src:    r.TransformURL(key, sorted[len(sorted)-1]),
		SrcSet: strings.Join(parts, ", "),
	}
}

// OriginalURL returns the untransformed asset URL for a canonical key.
func (r *Resolver) OriginalURL(key string) string {
	return r.assetsRoot + "/" + key
}

// TransformURL builds the CDN transform URL for one width.
func (r *Resolver) TransformURL(key string, width int) string {
	return fmt.Sprintf("%s/%s/width=%d,format=auto,quality=%d/%s",
		r.imagesRoot, r.transformPath, width, r.quality, key)
}

// TransformOptions carries ad hoc transform parameters for the image
// redirect endpoint.
type TransformOptions struct {
	Width  int
	Height int
	Fit    string
	Format string
}

// TransformURLWithOptions builds a CDN transform URL from ad hoc
// parameters. Width and height are snapped to the allowed set. With no
// dimensional constraints at all, the original asset URL is returned.
func (r *Resolver) TransformURLWithOptions(key string, opts TransformOptions) string {
	params := make([]string, 0, 4)
	if opts.Width > 0 {
		params = append(params, fmt.Sprintf("width=%d", SnapToAllowed(opts.Width)))
	}
	if opts.Height > 0 {
		params = append(params, fmt.Sprintf("height=%d", SnapToAllowed(opts.Height)))
	}
	if len(params) == 0 {
		return r.OriginalURL(key)
	}
	if opts.Fit != "" {
		params = append(params, "fit="+opts.Fit)
	}
	format := opts.Format
	if format == "" {
		format = "auto"
	}
	params = append(params, "format="+format, fmt.Sprintf("quality=%d", r.quality))

	return fmt.Sprintf("%s/%s/%s/%s", r.imagesRoot, r.transformPath, strings.Join(params, ","), key)
}

// Usages returns the known usage profile names, sorted. Used by parameter
// validation.
func Usages() []string {
	names := make([]string, 0, len(usageWidths))
	for name := range usageWidths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
