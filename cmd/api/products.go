package main

import (
	"net/http"

	"vitrina/internal/domain/catalog"
)

type CreateProductPayload struct {
	CategoryID  int64   `json:"category_id" validate:"required,min=1"`
	BrandID     *int64  `json:"brand_id" validate:"omitempty,min=1"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,min=0"`
	IsVisible   *bool   `json:"is_visible"`
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Description	Appends the product at the end of the catalog. Omitting is_visible defaults to visible.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			catalogID	path		int						true	"Catalog ID"
//	@Param			payload		body		CreateProductPayload	true	"Product details"
//	@Success		201			{object}	catalog.Product
//	@Failure		400			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse	"Plan limit reached"
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	visible := true
	if payload.IsVisible != nil {
		visible = *payload.IsVisible
	}

	created, err := app.catalog.CreateProduct(r.Context(), user.ID, catalogID, catalog.CreateProductInput{
		CategoryID:  payload.CategoryID,
		BrandID:     payload.BrandID,
		Title:       payload.Title,
		Description: payload.Description,
		PriceCents:  payload.PriceCents,
		IsVisible:   visible,
	})
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listProductsHandler godoc
//
//	@Summary	List products in display order
//	@Tags		products
//	@Produce	json
//	@Param		catalogID	path	int	true	"Catalog ID"
//	@Success	200			{array}	catalog.Product
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID}/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, err := app.catalog.ListProducts(r.Context(), user.ID, catalogID)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProductHandler godoc
//
//	@Summary	Get one product with its gallery
//	@Tags		products
//	@Produce	json
//	@Param		catalogID	path		int	true	"Catalog ID"
//	@Param		productID	path		int	true	"Product ID"
//	@Success	200			{object}	catalog.ProductWithImages
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID}/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p, err := app.catalog.GetProduct(r.Context(), user.ID, catalogID, productID)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, p); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateProductPayload struct {
	CategoryID  *int64  `json:"category_id" validate:"omitempty,min=1"`
	BrandID     *int64  `json:"brand_id" validate:"omitempty,min=1"`
	ClearBrand  bool    `json:"clear_brand"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,min=0"`
	ClearPrice  bool    `json:"clear_price"`
}

// updateProductHandler godoc
//
//	@Summary		Update a product
//	@Description	Partial update. clear_brand and clear_price explicitly null the field, since omitting it leaves it untouched. A title change re-derives the slug.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			catalogID	path		int						true	"Catalog ID"
//	@Param			productID	path		int						true	"Product ID"
//	@Param			payload		body		UpdateProductPayload	true	"Fields to update"
//	@Success		200			{object}	catalog.Product
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/products/{productID} [patch]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated, err := app.catalog.UpdateProduct(r.Context(), user.ID, catalogID, productID, catalog.UpdateProductInput{
		CategoryID:  payload.CategoryID,
		BrandID:     payload.BrandID,
		ClearBrand:  payload.ClearBrand,
		Title:       payload.Title,
		Description: payload.Description,
		PriceCents:  payload.PriceCents,
		ClearPrice:  payload.ClearPrice,
	})
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteProductHandler godoc
//
//	@Summary		Delete a product
//	@Description	Deletes the product with its gallery and closes the position gap. Hosted images are removed best effort.
//	@Tags			products
//	@Param			catalogID	path	int	true	"Catalog ID"
//	@Param			productID	path	int	true	"Product ID"
//	@Success		204			"Product deleted"
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	imageURLs, err := app.catalog.DeleteProduct(r.Context(), user.ID, catalogID, productID)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	if len(imageURLs) > 0 {
		app.background(func() {
			for _, u := range imageURLs {
				if err := app.deleteFromCloudinary(u); err != nil {
					app.logger.Warnw("failed to delete hosted image", "url", u, "error", err)
				}
			}
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

type ProductVisibilityPayload struct {
	Visible *bool `json:"visible" validate:"required"`
}

// setProductVisibilityHandler godoc
//
//	@Summary		Show or hide a product
//	@Description	Hidden products keep their position but never appear on the public page.
//	@Tags			products
//	@Accept			json
//	@Param			catalogID	path	int							true	"Catalog ID"
//	@Param			productID	path	int							true	"Product ID"
//	@Param			payload		body	ProductVisibilityPayload	true	"Target visibility"
//	@Success		204			"Visibility changed"
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/products/{productID}/visibility [put]
func (app *application) setProductVisibilityHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	productID, err := parseIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ProductVisibilityPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.catalog.SetProductVisibility(r.Context(), user.ID, catalogID, productID, *payload.Visible); err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	w.WriteHeader(http.StatusNoContent)
}

type ReorderProductsPayload struct {
	ProductID   int64 `json:"product_id" validate:"required,min=1"`
	TargetIndex *int  `json:"target_index" validate:"required,min=0"`
}

// reorderProductsHandler godoc
//
//	@Summary		Move a product to a new position
//	@Description	Moves the product to the given index and shifts the rows in between.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			catalogID	path		int						true	"Catalog ID"
//	@Param			payload		body		ReorderProductsPayload	true	"Product and target index"
//	@Success		200			{array}		catalog.Product
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/products/reorder [put]
func (app *application) reorderProductsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ReorderProductsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, err := app.catalog.ReorderProducts(r.Context(), user.ID, catalogID, payload.ProductID, *payload.TargetIndex)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}
