// Package storefront holds the read-side helpers for public catalog
// pages: in-memory filtering of the visible product set.
package storefront

import (
	"strings"

	"vitrina/internal/domain/catalog"
)

// Filter narrows a storefront product list. Zero values mean "no
// constraint" for their field.
type Filter struct {
	Query      string
	CategoryID int64
	BrandIDs   []int64
}

// Apply returns the products matching every set constraint, preserving
// the incoming order. Query matches case-insensitively against the
// product title. BrandIDs is an OR set.
func Apply(products []*catalog.ProductWithImages, f Filter) []*catalog.ProductWithImages {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	brandSet := make(map[int64]struct{}, len(f.BrandIDs))
	for _, id := range f.BrandIDs {
		brandSet[id] = struct{}{}
	}

	out := []*catalog.ProductWithImages{}
	for _, p := range products {
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if len(brandSet) > 0 {
			if p.BrandID == nil {
				continue
			}
			if _, ok := brandSet[*p.BrandID]; !ok {
				continue
			}
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}
