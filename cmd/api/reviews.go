package main

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/THEGREATCJPark/jazzlink/internal/domain/ratings"
	"github.com/THEGREATCJPark/jazzlink/internal/notifications"
	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"github.com/go-chi/chi/v5"
)

type createReviewPayload struct {
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Content     string `json:"content" validate:"required,max=500"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// createReviewFor handles review submission for any rateable kind. The
// review insert and the profile's rating counters move in one transaction.
func (app *application) createReviewFor(kind store.RateableKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid ID"))
			return
		}

		var payload createReviewPayload
		if err := readJSON(w, r, &payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		if err := Validate.Struct(payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		user := getUserFromContext(r)
		if user == nil {
			app.unauthorizedErrorResponse(w, r, errors.New("unauthorized request"))
			return
		}

		review, err := app.ratings.Submit(r.Context(), kind, entityID, user.ID,
			payload.Rating, payload.Content, payload.IsAnonymous)
		if err != nil {
			switch {
			case errors.Is(err, ratings.ErrInvalidRating),
				errors.Is(err, ratings.ErrEmptyContent),
				errors.Is(err, ratings.ErrContentTooLong):
				app.badRequestResponse(w, r, err)
			case errors.Is(err, store.ErrNotFound):
				app.notFoundResponse(w, r, err)
			default:
				app.internalServerError(w, r, err)
			}
			return
		}

		go app.notifyReviewedOwner(kind, entityID, review.Rating)

		if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
			app.internalServerError(w, r, err)
		}
	}
}

// getReviewsFor returns the reviews plus the derived stats for any rateable
// kind. Average is rounded to one decimal for display.
func (app *application) getReviewsFor(kind store.RateableKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid ID"))
			return
		}

		reviews, err := app.ratings.List(r.Context(), kind, entityID)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		stats, err := app.ratings.Stats(r.Context(), kind, entityID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				app.notFoundResponse(w, r, err)
				return
			}
			app.internalServerError(w, r, err)
			return
		}

		response := map[string]interface{}{
			"reviews":       reviews,
			"total_reviews": stats.TotalReviews,
			"average":       math.Round(stats.Average*10) / 10,
		}

		if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
			app.internalServerError(w, r, err)
		}
	}
}

// notifyReviewedOwner pushes a notification to the reviewed profile's owner.
// Best effort: failures are logged, never surfaced to the reviewer.
func (app *application) notifyReviewedOwner(kind store.RateableKind, entityID int64, rating int) {
	ctx := context.Background()

	var ownerID int64
	var err error
	switch kind {
	case store.RateableVenue:
		var v *store.Venue
		if v, err = app.store.Venues.GetByID(ctx, entityID); err == nil {
			ownerID = v.OwnerID
		}
	case store.RateableMusician:
		var m *store.Musician
		if m, err = app.store.Musicians.GetByID(ctx, entityID); err == nil {
			ownerID = m.OwnerID
		}
	case store.RateableTeam:
		var t *store.Team
		if t, err = app.store.Teams.GetByID(ctx, entityID); err == nil {
			ownerID = t.OwnerID
		}
	}
	if err != nil {
		app.logger.Warnw("review notification: owner lookup failed", "kind", kind, "id", entityID, "error", err)
		return
	}

	if err := notifications.SendReviewNotification(ctx, app.push, &app.store, ownerID, kind, entityID, rating); err != nil {
		app.logger.Warnw("review notification failed", "kind", kind, "id", entityID, "error", err)
	}
}

// createVenueReviewHandler godoc
//
//	@Summary		Review a venue
//	@Description	Submits a 1-5 star review for a venue; rating counters update atomically
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		int					true	"Venue ID"
//	@Param			payload	body		createReviewPayload	true	"Review"
//	@Success		201		{object}	store.Review
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/reviews [post]
func (app *application) createVenueReviewHandler(w http.ResponseWriter, r *http.Request) {
	app.createReviewFor(store.RateableVenue, "venueID")(w, r)
}

// getVenueReviewsHandler godoc
//
//	@Summary		List venue reviews
//	@Tags			reviews
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Success		200		{object}	map[string]interface{}
//	@Router			/venues/{venueID}/reviews [get]
func (app *application) getVenueReviewsHandler(w http.ResponseWriter, r *http.Request) {
	app.getReviewsFor(store.RateableVenue, "venueID")(w, r)
}

func (app *application) createMusicianReviewHandler(w http.ResponseWriter, r *http.Request) {
	app.createReviewFor(store.RateableMusician, "musicianID")(w, r)
}

func (app *application) getMusicianReviewsHandler(w http.ResponseWriter, r *http.Request) {
	app.getReviewsFor(store.RateableMusician, "musicianID")(w, r)
}

func (app *application) createTeamReviewHandler(w http.ResponseWriter, r *http.Request) {
	app.createReviewFor(store.RateableTeam, "teamID")(w, r)
}

func (app *application) getTeamReviewsHandler(w http.ResponseWriter, r *http.Request) {
	app.getReviewsFor(store.RateableTeam, "teamID")(w, r)
}
