package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/THEGREATCJPark/jazzlink/internal/domain/profiles"
	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"github.com/go-chi/chi/v5"
)

type MusicianPayload struct {
	Name         string   `json:"name" validate:"required,max=50"`
	Instruments  []string `json:"instruments" validate:"required,min=1,dive,max=30"`
	SkillLevel   string   `json:"skill_level" validate:"required,skilllevel"`
	StartYear    int      `json:"start_year" validate:"required,min=1950,max=2100"`
	Profile      *string  `json:"profile"`
	Tags         []string `json:"tags"`
	YoutubeURL   *string  `json:"youtube_url" validate:"omitempty,url"`
	InstagramURL *string  `json:"instagram_url" validate:"omitempty,url"`
	TeamID       *int64   `json:"team_id"`
	// The affiliation the edit session started from; the server diffs it
	// against team_id to update only the affected rosters.
	PreviousTeamID *int64 `json:"previous_team_id"`
}

func (p *MusicianPayload) toMusician(ownerID int64) *store.Musician {
	return &store.Musician{
		OwnerID:      ownerID,
		Name:         p.Name,
		Instruments:  p.Instruments,
		SkillLevel:   p.SkillLevel,
		StartYear:    p.StartYear,
		Profile:      p.Profile,
		Tags:         p.Tags,
		YoutubeURL:   p.YoutubeURL,
		InstagramURL: p.InstagramURL,
		TeamID:       p.TeamID,
	}
}

// saveMusicianError maps profile-save failures to responses. A drift error
// still returns 201/204 semantics upstream would hide, so it surfaces as 502
// with the musician saved.
func (app *application) saveMusicianError(w http.ResponseWriter, r *http.Request, err error) {
	var drift *profiles.DriftError
	switch {
	case errors.Is(err, profiles.ErrMissingRequired):
		app.badRequestResponse(w, r, err)
	case errors.As(err, &drift):
		app.logger.Warnw("musician saved with roster drift",
			"musician_id", drift.MusicianID, "team_id", drift.TeamID, "error", drift.Err)
		writeJSONError(w, http.StatusBadGateway,
			"profile saved but the team roster could not be updated; it will be reconciled")
	case errors.Is(err, store.ErrConflict):
		app.conflictResponse(w, r, errors.New("a musician profile already exists for this account"))
	case errors.Is(err, store.ErrNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// createMusicianHandler godoc
//
//	@Summary		Create a musician profile
//	@Description	Creates the current user's musician profile; joining a team also adds a roster entry
//	@Tags			musicians
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		MusicianPayload	true	"Musician data"
//	@Success		201		{object}	store.Musician
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error	"Profile already exists"
//	@Security		ApiKeyAuth
//	@Router			/musicians [post]
func (app *application) createMusicianHandler(w http.ResponseWriter, r *http.Request) {
	var payload MusicianPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	musician := payload.toMusician(user.ID)

	if err := app.profiles.SaveMusician(r.Context(), musician, nil); err != nil {
		app.saveMusicianError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, musician); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateMusicianHandler godoc
//
//	@Summary		Update a musician profile
//	@Description	Saves the profile and syncs team rosters from the affiliation delta
//	@Tags			musicians
//	@Accept			json
//	@Produce		json
//	@Param			musicianID	path		int				true	"Musician ID"
//	@Param			payload		body		MusicianPayload	true	"Musician data"
//	@Success		200			{object}	store.Musician
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		502			{object}	error	"Saved with roster drift"
//	@Security		ApiKeyAuth
//	@Router			/musicians/{musicianID} [put]
func (app *application) updateMusicianHandler(w http.ResponseWriter, r *http.Request) {
	musicianID, err := strconv.ParseInt(chi.URLParam(r, "musicianID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid musician ID"))
		return
	}

	var payload MusicianPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	musician := payload.toMusician(user.ID)
	musician.ID = musicianID

	if err := app.profiles.SaveMusician(r.Context(), musician, payload.PreviousTeamID); err != nil {
		app.saveMusicianError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, musician); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getMusicianHandler godoc
//
//	@Summary		Get a musician profile
//	@Tags			musicians
//	@Produce		json
//	@Param			musicianID	path		int	true	"Musician ID"
//	@Success		200			{object}	store.Musician
//	@Failure		404			{object}	error
//	@Router			/musicians/{musicianID} [get]
func (app *application) getMusicianHandler(w http.ResponseWriter, r *http.Request) {
	musicianID, err := strconv.ParseInt(chi.URLParam(r, "musicianID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid musician ID"))
		return
	}

	musician, err := app.store.Musicians.GetByID(r.Context(), musicianID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, musician); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getMyMusicianHandler godoc
//
//	@Summary		Get my musician profile
//	@Tags			musicians
//	@Produce		json
//	@Success		200	{object}	store.Musician
//	@Failure		404	{object}	error	"No profile yet"
//	@Security		ApiKeyAuth
//	@Router			/musicians/me [get]
func (app *application) getMyMusicianHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	musician, err := app.store.Musicians.GetByOwner(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, musician); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listMusiciansHandler godoc
//
//	@Summary		List musician profiles
//	@Tags			musicians
//	@Produce		json
//	@Success		200	{array}	store.Musician
//	@Router			/musicians [get]
func (app *application) listMusiciansHandler(w http.ResponseWriter, r *http.Request) {
	musicians, err := app.store.Musicians.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, musicians); err != nil {
		app.internalServerError(w, r, err)
	}
}
