package main

import (
	"errors"
	"fmt"
	"net/http"

	"vitrina/internal/domain/users"

	"github.com/go-chi/chi/v5"
)

// activateUserHandler godoc
//
//	@Summary		Activate an account
//	@Description	Activates the account that owns the invitation token. Safe to call twice.
//	@Tags			users
//	@Produce		json
//	@Param			token	path	string	true	"Invitation token"
//	@Success		204		"Account activated"
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/users/activate/{token} [put]
func (app *application) activateUserHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	err := app.users.Activate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// usernameAvailableHandler godoc
//
//	@Summary		Check username availability
//	@Tags			users
//	@Produce		json
//	@Param			username	query		string	true	"Candidate username"
//	@Success		200			{object}	map[string]bool
//	@Failure		400			{object}	ErrorResponse
//	@Router			/users/username-available [get]
func (app *application) usernameAvailableHandler(w http.ResponseWriter, r *http.Request) {
	candidate := r.URL.Query().Get("username")

	payload := struct {
		Username string `validate:"required,username"`
	}{Username: candidate}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid username"))
		return
	}

	exists, err := app.users.UsernameExists(r.Context(), candidate)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"available": !exists}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProfileHandler godoc
//
//	@Summary		Get the authenticated merchant's profile
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	users.User
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateProfilePayload struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	Username *string `json:"username" validate:"omitempty,username"`
}

// updateProfileHandler godoc
//
//	@Summary		Update profile fields
//	@Description	Partial update of full name, bio and username. Changing the username changes all public storefront URLs.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	UpdateProfilePayload	true	"Fields to update"
//	@Success		204		"Profile updated"
//	@Failure		400		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me [patch]
func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload UpdateProfilePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.FullName != nil {
		updates["full_name"] = *payload.FullName
	}
	if payload.Bio != nil {
		updates["bio"] = *payload.Bio
	}
	if payload.Username != nil {
		updates["username"] = *payload.Username
	}
	if len(updates) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("no fields to update"))
		return
	}

	if err := app.users.UpdateProfile(r.Context(), user.ID, updates); err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateUsername):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// Old storefront URLs die with the old username.
	if payload.Username != nil && app.storeCache != nil {
		app.storeCache.Invalidate(r.Context(), user.Username)
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadProfileLogoHandler godoc
//
//	@Summary		Upload the merchant logo
//	@Description	Multipart upload, field name "logo". Replaces and deletes the previous logo.
//	@Tags			users
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			logo	formData	file	true	"Logo image"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me/logo [post]
func (app *application) uploadProfileLogoHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	file, err := app.readImageUpload(w, r, "logo")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	url, err := app.uploadToCloudinary(file, folderProfiles, fmt.Sprintf("profile_%d", user.ID))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	oldURL, err := app.users.GetLogoURL(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.users.SetLogo(r.Context(), user.ID, url); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if oldURL != nil && *oldURL != url {
		app.background(func() {
			if err := app.deleteFromCloudinary(*oldURL); err != nil {
				app.logger.Warnw("failed to delete old logo", "error", err)
			}
		})
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"logo_url": url}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// changePasswordHandler godoc
//
//	@Summary		Change password
//	@Description	Verifies the current password and replaces it, revoking the refresh token.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	ChangePasswordPayload	true	"Current and new password"
//	@Success		204		"Password changed"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me/password [put]
func (app *application) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload ChangePasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := user.Password.Compare(payload.CurrentPassword); err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("current password is wrong"))
		return
	}

	if err := user.Password.Set(payload.NewPassword); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.users.UpdatePassword(r.Context(), user); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.users.DeleteRefreshToken(r.Context(), user.ID); err != nil {
		app.logger.Errorw("error revoking refresh token after password change", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// logoutHandler godoc
//
//	@Summary		Logout
//	@Description	Revokes the stored refresh token.
//	@Tags			users
//	@Produce		json
//	@Success		204	"Logged out"
//	@Security		ApiKeyAuth
//	@Router			/users/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.users.DeleteRefreshToken(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
