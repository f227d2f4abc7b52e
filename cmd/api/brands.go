package main

import (
	"fmt"
	"net/http"

	"vitrina/internal/domain/catalog"
)

type CreateBrandPayload struct {
	Name string `json:"name" validate:"required,max=120"`
}

// createBrandHandler godoc
//
//	@Summary	Create a brand
//	@Tags		brands
//	@Accept		json
//	@Produce	json
//	@Param		catalogID	path		int					true	"Catalog ID"
//	@Param		payload		body		CreateBrandPayload	true	"Brand details"
//	@Success	201			{object}	catalog.Brand
//	@Failure	400			{object}	ErrorResponse
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID}/brands [post]
func (app *application) createBrandHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateBrandPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	created, err := app.catalog.CreateBrand(r.Context(), user.ID, catalogID, catalog.CreateBrandInput{
		Name: payload.Name,
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

// listBrandsHandler godoc
//
//	@Summary	List brands
//	@Tags		brands
//	@Produce	json
//	@Param		catalogID	path	int	true	"Catalog ID"
//	@Success	200			{array}	catalog.Brand
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID}/brands [get]
func (app *application) listBrandsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, err := app.catalog.ListBrands(r.Context(), user.ID, catalogID)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateBrandPayload struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=120"`
}

// updateBrandHandler godoc
//
//	@Summary	Update a brand
//	@Tags		brands
//	@Accept		json
//	@Produce	json
//	@Param		catalogID	path		int					true	"Catalog ID"
//	@Param		brandID		path		int					true	"Brand ID"
//	@Param		payload		body		UpdateBrandPayload	true	"Fields to update"
//	@Success	200			{object}	catalog.Brand
//	@Failure	400			{object}	ErrorResponse
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID}/brands/{brandID} [patch]
func (app *application) updateBrandHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	brandID, err := parseIDParam(r, "brandID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateBrandPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated, err := app.catalog.UpdateBrand(r.Context(), user.ID, catalogID, brandID, catalog.UpdateBrandInput{
		Name: payload.Name,
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

// deleteBrandHandler godoc
//
//	@Summary		Delete a brand
//	@Description	Products referencing the brand keep existing with no brand.
//	@Tags			brands
//	@Param			catalogID	path	int	true	"Catalog ID"
//	@Param			brandID		path	int	true	"Brand ID"
//	@Success		204			"Brand deleted"
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/brands/{brandID} [delete]
func (app *application) deleteBrandHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	brandID, err := parseIDParam(r, "brandID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.catalog.DeleteBrand(r.Context(), user.ID, catalogID, brandID); err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	w.WriteHeader(http.StatusNoContent)
}

// uploadBrandLogoHandler godoc
//
//	@Summary		Upload a brand logo
//	@Description	Accepts a multipart form with an image under the "logo" field.
//	@Tags			brands
//	@Accept			mpfd
//	@Produce		json
//	@Param			catalogID	path		int		true	"Catalog ID"
//	@Param			brandID		path		int		true	"Brand ID"
//	@Param			logo		formData	file	true	"Logo image"
//	@Success		200			{object}	map[string]string
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/brands/{brandID}/logo [post]
func (app *application) uploadBrandLogoHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	catalogID, err := parseIDParam(r, "catalogID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	brandID, err := parseIDParam(r, "brandID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	file, err := app.readImageUpload(w, r, "logo")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	logoURL, err := app.uploadToCloudinary(file, folderBrands, fmt.Sprintf("brand_%d", brandID))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.catalog.SetBrandLogo(r.Context(), user.ID, catalogID, brandID, logoURL); err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"logo_url": logoURL}); err != nil {
		app.internalServerError(w, r, err)
	}
}
