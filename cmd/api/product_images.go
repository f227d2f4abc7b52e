package main

import (
	"fmt"
	"net/http"
	"time"
)

// uploadProductImageHandler godoc
//
//	@Summary		Upload a product image
//	@Description	Accepts a multipart form with the image under the "image" field. The first image of a product always becomes primary. Set the "primary" field to "true" to mark a later upload primary.
//	@Tags			product-images
//	@Accept			mpfd
//	@Produce		json
//	@Param			catalogID	path		int		true	"Catalog ID"
//	@Param			productID	path		int		true	"Product ID"
//	@Param			image		formData	file	true	"Product image"
//	@Param			primary		formData	string	false	"Mark as primary"
//	@Success		201			{object}	catalog.ProductImage
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/products/{productID}/images [post]
func (app *application) uploadProductImageHandler(w http.ResponseWriter, r *http.Request) {
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

	file, err := app.readImageUpload(w, r, "image")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	isPrimary := r.FormValue("primary") == "true"

	publicID := fmt.Sprintf("product_%d_%d", productID, time.Now().UnixNano())
	imageURL, err := app.uploadToCloudinary(file, folderProducts, publicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	img, err := app.catalog.AddProductImage(r.Context(), user.ID, catalogID, productID, imageURL, isPrimary)
	if err != nil {
		app.background(func() {
			if delErr := app.deleteFromCloudinary(imageURL); delErr != nil {
				app.logger.Warnw("failed to delete orphaned image", "url", imageURL, "error", delErr)
			}
		})
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	if err := app.jsonResponse(w, http.StatusCreated, img); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listProductImagesHandler godoc
//
//	@Summary	List a product's gallery in display order
//	@Tags		product-images
//	@Produce	json
//	@Param		catalogID	path	int	true	"Catalog ID"
//	@Param		productID	path	int	true	"Product ID"
//	@Success	200			{array}	catalog.ProductImage
//	@Failure	404			{object}	ErrorResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/catalogs/{catalogID}/products/{productID}/images [get]
func (app *application) listProductImagesHandler(w http.ResponseWriter, r *http.Request) {
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

	list, err := app.catalog.ListProductImages(r.Context(), user.ID, catalogID, productID)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// setPrimaryImageHandler godoc
//
//	@Summary		Mark an image as the product's primary image
//	@Description	Exactly one image per non-empty gallery is primary at any time.
//	@Tags			product-images
//	@Param			catalogID	path	int	true	"Catalog ID"
//	@Param			productID	path	int	true	"Product ID"
//	@Param			imageID		path	int	true	"Image ID"
//	@Success		204			"Primary image changed"
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/products/{productID}/images/{imageID}/primary [put]
func (app *application) setPrimaryImageHandler(w http.ResponseWriter, r *http.Request) {
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
	imageID, err := parseIDParam(r, "imageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.catalog.SetPrimaryImage(r.Context(), user.ID, catalogID, productID, imageID); err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	w.WriteHeader(http.StatusNoContent)
}

// deleteProductImageHandler godoc
//
//	@Summary		Delete a product image
//	@Description	Removing the primary image promotes the next image in display order.
//	@Tags			product-images
//	@Param			catalogID	path	int	true	"Catalog ID"
//	@Param			productID	path	int	true	"Product ID"
//	@Param			imageID		path	int	true	"Image ID"
//	@Success		204			"Image deleted"
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/catalogs/{catalogID}/products/{productID}/images/{imageID} [delete]
func (app *application) deleteProductImageHandler(w http.ResponseWriter, r *http.Request) {
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
	imageID, err := parseIDParam(r, "imageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	deleted, err := app.catalog.DeleteProductImage(r.Context(), user.ID, catalogID, productID, imageID)
	if err != nil {
		app.handleCatalogError(w, r, err)
		return
	}

	app.invalidateStorefront(r)

	app.background(func() {
		if err := app.deleteFromCloudinary(deleted.URL); err != nil {
			app.logger.Warnw("failed to delete hosted image", "url", deleted.URL, "error", err)
		}
	})

	w.WriteHeader(http.StatusNoContent)
}
