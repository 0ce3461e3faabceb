package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/THEGREATCJPark/jazzlink/internal/store"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *store.User {
	if user, ok := r.Context().Value(userCtx).(*store.User); ok {
		return user
	}
	return nil
}

// placeholderAvatarURL builds the deterministic initials avatar used until a
// real photo is uploaded.
func placeholderAvatarURL(name string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=random", url.QueryEscape(name))
}

// getCurrentUserHandler godoc
//
//	@Summary		Get current user
//	@Description	Returns the authenticated user's profile
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	store.User
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("unauthorized request"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateUserPayload struct {
	Name *string `json:"name" validate:"omitempty,max=50"`
}

// updateUserHandler godoc
//
//	@Summary		Update current user
//	@Description	Updates the authenticated user's basic fields
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	UpdateUserPayload	true	"Fields to update"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/users [put]
func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("unauthorized request"))
		return
	}

	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = *payload.Name
	}

	if err := app.store.Users.UpdateUser(r.Context(), user.ID, updates); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type SetAccountTypePayload struct {
	AccountType string `json:"account_type" validate:"required,oneof=musician venue_owner general"`
}

// setAccountTypeHandler godoc
//
//	@Summary		Choose account type
//	@Description	Records the account type chosen after first sign-in. The choice is one-shot.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	SetAccountTypePayload	true	"Account type"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		409	{object}	error	"Account type already set"
//	@Security		ApiKeyAuth
//	@Router			/users/account-type [post]
func (app *application) setAccountTypeHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("unauthorized request"))
		return
	}

	var payload SetAccountTypePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Users.SetAccountType(r.Context(), user.ID, payload.AccountType); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, errors.New("account type already chosen"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadProfilePictureHandler godoc
//
//	@Summary		Upload profile picture
//	@Description	Uploads the user's profile picture to Cloudinary, replacing any previous one
//	@Tags			users
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Profile image"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/users/profile-picture [post]
func (app *application) uploadProfilePictureHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("unauthorized request"))
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB
		app.badRequestResponse(w, r, errors.New("could not parse multipart form"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("image file is required"))
		return
	}
	defer file.Close()

	// Drop the previous Cloudinary asset, if any. Placeholder avatars live on
	// ui-avatars.com and are skipped.
	oldURL, err := app.store.Users.GetProfileUrl(r.Context(), user.ID)
	if err == nil && isCloudinaryURL(oldURL) {
		if err := app.deletePhotoFromCloudinary(oldURL); err != nil {
			app.logger.Warnw("could not delete old profile picture", "error", err)
		}
	}

	publicID := fmt.Sprintf("user_%d_profile", user.ID)
	secureURL, err := app.uploadToCloudinary(file, "profiles", publicID, true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SetProfile(r.Context(), secureURL, user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"photo_url": secureURL}); err != nil {
		app.internalServerError(w, r, err)
	}
}
