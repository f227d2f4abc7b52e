package main

import (
	"net/http"

	"vitrina/internal/domain/catalog"
)

type CreateCategoryPayload struct {
	Name string  `json:"name" validate:"required,max=120"`
	Icon *string `json:"icon" validate:"omitempty,max=255"`
}

// createCategoryHandler godoc
//
//	@Summary		Create a category
//	@Description	Appends the category at the end of the catalog's category list.
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			catalogID	path		int						true	"Catalog ID"
//	@Param			payload		body		CreateCategoryPayload	true	"Category details"
//	@Success		201			{object}	catalog.Category
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	created, err := app.catalog.CreateCategory(r.Context(), user.ID, catalogID, catalog.CreateCategoryInput{
		Name: payload.Name,
		Icon: payload.Icon,
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

// listCategoriesHandler godoc
//
//	@Summary	List categories in display order
//	@Tags		categories
//	@Produce	json
//	@Param		catalogID	path	int	true	"Catalog ID"
//	@Success	200			{array}	catalog.Category
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID}/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, err := app.catalog.ListCategories(r.Context(), user.ID, catalogID)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateCategoryPayload struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=120"`
	Icon *string `json:"icon" validate:"omitempty,max=255"`
}

// updateCategoryHandler godoc
//
//	@Summary	Update a category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		catalogID	path		int						true	"Catalog ID"
//	@Param		categoryID	path		int						true	"Category ID"
//	@Param		payload		body		UpdateCategoryPayload	true	"Fields to update"
//	@Success	200			{object}	catalog.Category
//	@Failure	400			{object}	ErrorResponse
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID}/categories/{categoryID} [patch]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated, err := app.catalog.UpdateCategory(r.Context(), user.ID, catalogID, categoryID, catalog.UpdateCategoryInput{
		Name: payload.Name,
		Icon: payload.Icon,
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

// deleteCategoryHandler godoc
//
//	@Summary		Delete a category
//	@Description	Fails while products still reference the category.
//	@Tags			categories
//	@Param			catalogID	path	int	true	"Catalog ID"
//	@Param			categoryID	path	int	true	"Category ID"
//	@Success		204			"Category deleted"
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/categories/{categoryID} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.catalog.DeleteCategory(r.Context(), user.ID, catalogID, categoryID); err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	w.WriteHeader(http.StatusNoContent)
}

type ReorderCategoriesPayload struct {
	CategoryID  int64 `json:"category_id" validate:"required,min=1"`
	TargetIndex *int  `json:"target_index" validate:"required,min=0"`
}

// reorderCategoriesHandler godoc
//
//	@Summary		Move a category to a new position
//	@Description	Moves the category to the given index and shifts the rows in between.
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			catalogID	path		int							true	"Catalog ID"
//	@Param			payload		body		ReorderCategoriesPayload	true	"Category and target index"
//	@Success		200			{array}		catalog.Category
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/categories/reorder [put]
func (app *application) reorderCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ReorderCategoriesPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, err := app.catalog.ReorderCategories(r.Context(), user.ID, catalogID, payload.CategoryID, *payload.TargetIndex)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}
