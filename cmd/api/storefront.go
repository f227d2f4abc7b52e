package main

import (
	"net/http"
	"strconv"
	"strings"

	"vitrina/internal/domain/catalog"
	"vitrina/internal/storefront"

	"github.com/go-chi/chi/v5"
)

func parseStorefrontFilter(r *http.Request) storefront.Filter {
	q := r.URL.Query()

	f := storefront.Filter{Query: q.Get("q")}

	if raw := q.Get("category_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			f.CategoryID = id
		}
	}

	if raw := q.Get("brand_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil && id > 0 {
				f.BrandIDs = append(f.BrandIDs, id)
			}
		}
	}

	return f
}

// publicCatalogHandler godoc
//
//	@Summary		View a published catalog
//	@Description	Public, no authentication. Returns the catalog with its categories, brands, and visible products. Supports q, category_id and brand_ids (comma separated) query filters.
//	@Tags			storefront
//	@Produce		json
//	@Param			username	path		string	true	"Merchant username"
//	@Param			catalogSlug	path		string	true	"Catalog slug"
//	@Param			q			query		string	false	"Title search"
//	@Param			category_id	query		int		false	"Filter by category"
//	@Param			brand_ids	query		string	false	"Filter by brands, comma separated IDs"
//	@Success		200			{object}	catalog.PublicCatalog
//	@Failure		404			{object}	ErrorResponse
//	@Router			/storefront/{username}/{catalogSlug} [get]
func (app *application) publicCatalogHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	catalogSlug := chi.URLParam(r, "catalogSlug")

	filter := parseStorefrontFilter(r)
	unfiltered := filter.Query == "" && filter.CategoryID == 0 && len(filter.BrandIDs) == 0

	var page *catalog.PublicCatalog
	cached := false
	if app.storeCache != nil {
		page, cached = app.storeCache.Get(r.Context(), username, catalogSlug)
	}

	if !cached {
		var err error
		page, err = app.catalog.PublicCatalog(r.Context(), username, catalogSlug)
		if err != nil {
			app.handleCatalogError(w, r, err)
			return
		}
		if app.storeCache != nil {
			app.storeCache.Set(r.Context(), username, catalogSlug, page)
		}
	}

	if !unfiltered {
		filtered := *page
		filtered.Products = storefront.Apply(page.Products, filter)
		page = &filtered
	}

	if err := app.jsonResponse(w, http.StatusOK, page); err != nil {
		app.internalServerError(w, r, err)
	}
}
