package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/THEGREATCJPark/jazzlink/internal/places"
	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"github.com/go-chi/chi/v5"
)

// enrichVenue pulls place details for a linked Place ID and merges the
// non-empty fields onto the venue record.
func (app *application) enrichVenue(ctx context.Context, venueID int64, placeID string) error {
	details, err := app.places.Fetch(ctx, placeID)
	if err != nil {
		return err
	}
	return app.store.Venues.Update(ctx, venueID, places.MergeUpdates(details))
}

// enrichVenueHandler godoc
//
//	@Summary		Enrich a venue from Google Places
//	@Description	Pulls place details for the venue's linked Place ID and merges the non-empty fields onto the record
//	@Tags			venues
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Success		200		{object}	store.Venue
//	@Failure		400		{object}	ErrorBadRequestResponse	"Venue has no Google Place ID"
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/enrich [post]
func (app *application) enrichVenueHandler(w http.ResponseWriter, r *http.Request) {
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

	if venue.GooglePlaceID == nil {
		app.badRequestResponse(w, r, errors.New("venue has no linked Google Place ID"))
		return
	}

	if err := app.enrichVenue(r.Context(), venueID, *venue.GooglePlaceID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	enriched, err := app.store.Venues.GetByID(r.Context(), venueID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, enriched); err != nil {
		app.internalServerError(w, r, err)
	}
}
