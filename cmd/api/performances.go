package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"github.com/go-chi/chi/v5"
)

type CreatePerformancePayload struct {
	Title    string    `json:"title" validate:"required,max=100"`
	DateTime time.Time `json:"date_time" validate:"required"`
}

// createPerformanceHandler godoc
//
//	@Summary		Schedule a performance
//	@Description	Adds a performance to the venue's schedule
//	@Tags			performances
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		int							true	"Venue ID"
//	@Param			payload	body		CreatePerformancePayload	true	"Performance data"
//	@Success		201		{object}	store.Performance
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/performances [post]
func (app *application) createPerformanceHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid venue ID"))
		return
	}

	var payload CreatePerformancePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	performance := &store.Performance{
		VenueID:  venueID,
		Title:    payload.Title,
		DateTime: payload.DateTime,
	}

	if err := app.store.Performances.Create(r.Context(), performance); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, performance); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listUpcomingPerformancesHandler godoc
//
//	@Summary		List upcoming performances
//	@Description	Performances from today onward across all venues, soonest first
//	@Tags			performances
//	@Produce		json
//	@Success		200	{array}	store.Performance
//	@Router			/performances [get]
func (app *application) listUpcomingPerformancesHandler(w http.ResponseWriter, r *http.Request) {
	performances, err := app.store.Performances.ListUpcoming(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, performances); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listVenuePerformancesHandler godoc
//
//	@Summary		List a venue's performances
//	@Tags			performances
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Success		200		{array}		store.Performance
//	@Router			/venues/{venueID}/performances [get]
func (app *application) listVenuePerformancesHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid venue ID"))
		return
	}

	performances, err := app.store.Performances.ListByVenue(r.Context(), venueID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, performances); err != nil {
		app.internalServerError(w, r, err)
	}
}
