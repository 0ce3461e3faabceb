package main

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/THEGREATCJPark/jazzlink/internal/domain/ratings"
	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"github.com/go-chi/chi/v5"
)

type CreateVenuePayload struct {
	Name           string   `json:"name" validate:"required,max=100"`
	Address        string   `json:"address" validate:"required,max=255"`
	Description    *string  `json:"description"`
	Tags           []string `json:"tags"`
	OperatingHours *string  `json:"operating_hours"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	NaverMapsURL   *string  `json:"naver_maps_url" validate:"omitempty,url"`
	InstagramURL   *string  `json:"instagram_url" validate:"omitempty,url"`
	YoutubeURL     *string  `json:"youtube_url" validate:"omitempty,url"`
	WebsiteURL     *string  `json:"website_url" validate:"omitempty,url"`
	GooglePlaceID  *string  `json:"google_place_id"`
}

// createVenueHandler godoc
//
//	@Summary		Create a venue
//	@Description	Registers a jazz bar profile owned by the current user
//	@Tags			venues
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateVenuePayload	true	"Venue data"
//	@Success		201		{object}	store.Venue
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error	"Venue already exists"
//	@Security		ApiKeyAuth
//	@Router			/venues [post]
func (app *application) createVenueHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateVenuePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	venue := &store.Venue{
		OwnerID:        user.ID,
		Name:           payload.Name,
		Address:        payload.Address,
		Description:    payload.Description,
		Tags:           payload.Tags,
		OperatingHours: payload.OperatingHours,
		Latitude:       payload.Latitude,
		Longitude:      payload.Longitude,
		NaverMapsURL:   payload.NaverMapsURL,
		InstagramURL:   payload.InstagramURL,
		YoutubeURL:     payload.YoutubeURL,
		WebsiteURL:     payload.WebsiteURL,
		GooglePlaceID:  payload.GooglePlaceID,
	}

	if err := app.store.Venues.Create(r.Context(), venue); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, errors.New("a venue with that name already exists"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, venue); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getVenueHandler godoc
//
//	@Summary		Get a venue
//	@Description	Returns a venue profile with its derived average rating
//	@Tags			venues
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		404		{object}	error
//	@Router			/venues/{venueID} [get]
func (app *application) getVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid venue ID"))
		return
	}

	venue, err := app.store.Venues.GetByID(r.Context(), venueID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	response := map[string]interface{}{
		"venue":   venue,
		"average": math.Round(ratings.Average(venue.TotalRating, venue.RatingCount)*10) / 10,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listVenuesHandler godoc
//
//	@Summary		List venues
//	@Tags			venues
//	@Produce		json
//	@Success		200	{array}	store.Venue
//	@Router			/venues [get]
func (app *application) listVenuesHandler(w http.ResponseWriter, r *http.Request) {
	venues, err := app.store.Venues.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, venues); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateVenuePayload struct {
	Name           *string  `json:"name" validate:"omitempty,max=100"`
	Address        *string  `json:"address" validate:"omitempty,max=255"`
	Description    *string  `json:"description"`
	Tags           []string `json:"tags"`
	OperatingHours *string  `json:"operating_hours"`
	NaverMapsURL   *string  `json:"naver_maps_url" validate:"omitempty,url"`
	InstagramURL   *string  `json:"instagram_url" validate:"omitempty,url"`
	YoutubeURL     *string  `json:"youtube_url" validate:"omitempty,url"`
	WebsiteURL     *string  `json:"website_url" validate:"omitempty,url"`
	GooglePlaceID  *string  `json:"google_place_id"`
}

// updateVenueHandler godoc
//
//	@Summary		Update a venue
//	@Description	Updates venue fields; only provided fields change
//	@Tags			venues
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path	int					true	"Venue ID"
//	@Param			payload	body	UpdateVenuePayload	true	"Fields to update"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		403	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID} [patch]
func (app *application) updateVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid venue ID"))
		return
	}

	var payload UpdateVenuePayload
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
	if payload.Address != nil {
		updates["address"] = *payload.Address
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Tags != nil {
		updates["tags"] = payload.Tags
	}
	if payload.OperatingHours != nil {
		updates["operating_hours"] = *payload.OperatingHours
	}
	if payload.NaverMapsURL != nil {
		updates["naver_maps_url"] = *payload.NaverMapsURL
	}
	if payload.InstagramURL != nil {
		updates["instagram_url"] = *payload.InstagramURL
	}
	if payload.YoutubeURL != nil {
		updates["youtube_url"] = *payload.YoutubeURL
	}
	if payload.WebsiteURL != nil {
		updates["website_url"] = *payload.WebsiteURL
	}
	if payload.GooglePlaceID != nil {
		updates["google_place_id"] = *payload.GooglePlaceID
	}

	if err := app.store.Venues.Update(r.Context(), venueID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadVenuePhotoHandler godoc
//
//	@Summary		Upload venue photos
//	@Description	Uploads one or more gallery photos for a venue
//	@Tags			venues
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			venueID	path		int		true	"Venue ID"
//	@Param			images	formData	file	true	"Images"
//	@Success		201		{object}	map[string][]string
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/photos [post]
func (app *application) uploadVenuePhotoHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid venue ID"))
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB
		app.badRequestResponse(w, r, errors.New("could not parse multipart form"))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, errors.New("at least one image is required"))
		return
	}

	urls, err := app.uploadImagesWithVenueID(files, venueID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	for _, u := range urls {
		if err := app.store.Venues.AddPhotoURL(r.Context(), venueID, u); err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	if err := app.jsonResponse(w, http.StatusCreated, map[string][]string{"photos": urls}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteVenuePhotoHandler godoc
//
//	@Summary		Delete a venue photo
//	@Description	Removes a photo from the gallery and from Cloudinary
//	@Tags			venues
//	@Produce		json
//	@Param			venueID		path	int		true	"Venue ID"
//	@Param			photo_url	query	string	true	"Photo URL to remove"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/photos [delete]
func (app *application) deleteVenuePhotoHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid venue ID"))
		return
	}

	photoURL := r.URL.Query().Get("photo_url")
	if photoURL == "" {
		app.badRequestResponse(w, r, errors.New("photo_url query parameter is required"))
		return
	}

	if err := app.deletePhotoFromCloudinary(photoURL); err != nil {
		app.logger.Warnw("could not delete photo from cloudinary", "error", err)
	}

	if err := app.store.Venues.RemovePhotoURL(r.Context(), venueID, photoURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
