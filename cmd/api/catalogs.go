package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"vitrina/internal/domain/catalog"

	"github.com/go-chi/chi/v5"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// handleCatalogError maps service errors to HTTP responses shared by
// every catalog-scoped handler.
func (app *application) handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	var limitErr *catalog.LimitExceededError
	switch {
	case errors.As(err, &limitErr):
		app.limitExceededResponse(w, r, limitErr)
	case errors.Is(err, catalog.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, catalog.ErrConflict):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// invalidateStorefront drops the merchant's cached public pages after a
// write that may change them.
func (app *application) invalidateStorefront(r *http.Request) {
	if app.storeCache == nil {
		return
	}
	user := getUserFromContext(r)
	app.storeCache.Invalidate(r.Context(), user.Username)
}

type CreateCatalogPayload struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// createCatalogHandler godoc
//
//	@Summary		Create a catalog
//	@Description	Creates an unpublished catalog. The slug is derived from the name, suffixed when taken.
//	@Tags			catalogs
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateCatalogPayload	true	"Catalog details"
//	@Success		201		{object}	catalog.Catalog
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse	"Plan limit reached"
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs [post]
func (app *application) createCatalogHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateCatalogPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	created, err := app.catalog.CreateCatalog(r.Context(), user.ID, catalog.CreateCatalogInput{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listCatalogsHandler godoc
//
//	@Summary	List the merchant's catalogs
//	@Tags		catalogs
//	@Produce	json
//	@Success	200	{array}	catalog.Catalog
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs [get]
func (app *application) listCatalogsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	list, err := app.catalog.ListCatalogs(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getCatalogHandler godoc
//
//	@Summary	Get one catalog
//	@Tags		catalogs
//	@Produce	json
//	@Param		catalogID	path		int	true	"Catalog ID"
//	@Success	200			{object}	catalog.Catalog
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID} [get]
func (app *application) getCatalogHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.catalog.GetCatalog(r.Context(), user.ID, catalogID)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, c); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateCatalogPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// updateCatalogHandler godoc
//
//	@Summary		Update a catalog
//	@Description	Partial update. Renaming re-derives the slug, which changes the public URL.
//	@Tags			catalogs
//	@Accept			json
//	@Produce		json
//	@Param			catalogID	path		int						true	"Catalog ID"
//	@Param			payload		body		UpdateCatalogPayload	true	"Fields to update"
//	@Success		200			{object}	catalog.Catalog
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID} [patch]
func (app *application) updateCatalogHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCatalogPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated, err := app.catalog.UpdateCatalog(r.Context(), user.ID, catalogID, catalog.UpdateCatalogInput{
		Name:        payload.Name,
		Description: payload.Description,
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

// deleteCatalogHandler godoc
//
//	@Summary		Delete a catalog
//	@Description	Deletes the catalog and everything in it.
//	@Tags			catalogs
//	@Param			catalogID	path	int	true	"Catalog ID"
//	@Success		204			"Catalog deleted"
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID} [delete]
func (app *application) deleteCatalogHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.catalog.DeleteCatalog(r.Context(), user.ID, catalogID); err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	w.WriteHeader(http.StatusNoContent)
}

type PublishCatalogPayload struct {
	Published *bool `json:"published" validate:"required"`
}

// publishCatalogHandler godoc
//
//	@Summary		Publish or unpublish a catalog
//	@Description	Only published catalogs resolve on the public storefront.
//	@Tags			catalogs
//	@Accept			json
//	@Param			catalogID	path	int						true	"Catalog ID"
//	@Param			payload		body	PublishCatalogPayload	true	"Target publish state"
//	@Success		204			"State changed"
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/publish [put]
func (app *application) publishCatalogHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload PublishCatalogPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.catalog.SetPublished(r.Context(), user.ID, catalogID, *payload.Published); err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	w.WriteHeader(http.StatusNoContent)
}
