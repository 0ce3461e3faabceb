package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/THEGREATCJPark/jazzlink/internal/notifications"
	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/speps/go-hashids/v2"
)

type TeamMemberPayload struct {
	Name       string `json:"name" validate:"required,max=50"`
	Instrument string `json:"instrument" validate:"max=30"`
	IsLeader   bool   `json:"is_leader"`
	MusicianID *int64 `json:"musician_id"`
	OwnerID    *int64 `json:"owner_id"`
}

type TeamPayload struct {
	TeamName     string              `json:"team_name" validate:"required,max=50"`
	Description  *string             `json:"description"`
	Region       *string             `json:"region"`
	Tags         []string            `json:"tags"`
	YoutubeURL   *string             `json:"youtube_url" validate:"omitempty,url"`
	InstagramURL *string             `json:"instagram_url" validate:"omitempty,url"`
	Members      []TeamMemberPayload `json:"members" validate:"dive"`
}

func toStoreMembers(payload []TeamMemberPayload) []store.TeamMember {
	members := make([]store.TeamMember, 0, len(payload))
	for _, m := range payload {
		members = append(members, store.TeamMember{
			Name:       m.Name,
			Instrument: m.Instrument,
			IsLeader:   m.IsLeader,
			MusicianID: m.MusicianID,
			OwnerID:    m.OwnerID,
		})
	}
	return members
}

// createTeamHandler godoc
//
//	@Summary		Create a team
//	@Description	Creates a team with its initial roster, owned by the current user
//	@Tags			teams
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		TeamPayload	true	"Team data"
//	@Success		201		{object}	store.Team
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/teams [post]
func (app *application) createTeamHandler(w http.ResponseWriter, r *http.Request) {
	var payload TeamPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	team := &store.Team{
		OwnerID:      user.ID,
		TeamName:     payload.TeamName,
		Description:  payload.Description,
		Region:       payload.Region,
		Tags:         payload.Tags,
		YoutubeURL:   payload.YoutubeURL,
		InstagramURL: payload.InstagramURL,
	}

	if err := app.profiles.SaveTeam(r.Context(), team, toStoreMembers(payload.Members)); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, team); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateTeamHandler godoc
//
//	@Summary		Update a team
//	@Description	Rewrites team fields and the roster as submitted; linked musician profiles are never modified
//	@Tags			teams
//	@Accept			json
//	@Produce		json
//	@Param			teamID	path		int			true	"Team ID"
//	@Param			payload	body		TeamPayload	true	"Team data"
//	@Success		200		{object}	store.Team
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/teams/{teamID} [put]
func (app *application) updateTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid team ID"))
		return
	}

	var payload TeamPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	team := &store.Team{
		ID:           teamID,
		OwnerID:      user.ID,
		TeamName:     payload.TeamName,
		Description:  payload.Description,
		Region:       payload.Region,
		Tags:         payload.Tags,
		YoutubeURL:   payload.YoutubeURL,
		InstagramURL: payload.InstagramURL,
	}

	previous, err := app.store.Teams.GetByID(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	members := toStoreMembers(payload.Members)
	if err := app.profiles.SaveTeam(r.Context(), team, members); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	go app.notifyRosterChanges(previous.Members, members, payload.TeamName)

	team.Members = members
	if err := app.jsonResponse(w, http.StatusOK, team); err != nil {
		app.internalServerError(w, r, err)
	}
}

// notifyRosterChanges pushes join/leave notifications to owners of linked
// profiles whose roster entry appeared or disappeared.
func (app *application) notifyRosterChanges(before, after []store.TeamMember, teamName string) {
	ctx := context.Background()

	owners := func(members []store.TeamMember) map[int64]int64 { // musician id -> owner id
		out := make(map[int64]int64)
		for _, m := range members {
			if m.MusicianID != nil && m.OwnerID != nil {
				out[*m.MusicianID] = *m.OwnerID
			}
		}
		return out
	}
	was, is := owners(before), owners(after)

	for id, ownerID := range is {
		if _, ok := was[id]; !ok {
			if err := notifications.SendRosterNotification(ctx, app.push, &app.store, ownerID, teamName, true); err != nil {
				app.logger.Warnw("roster notification failed", "owner_id", ownerID, "error", err)
			}
		}
	}
	for id, ownerID := range was {
		if _, ok := is[id]; !ok {
			if err := notifications.SendRosterNotification(ctx, app.push, &app.store, ownerID, teamName, false); err != nil {
				app.logger.Warnw("roster notification failed", "owner_id", ownerID, "error", err)
			}
		}
	}
}

// replaceTeamMembersHandler godoc
//
//	@Summary		Replace the roster
//	@Description	Rewrites the member list exactly as submitted, last writer wins
//	@Tags			teams
//	@Accept			json
//	@Produce		json
//	@Param			teamID	path	int					true	"Team ID"
//	@Param			payload	body	[]TeamMemberPayload	true	"Members"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/teams/{teamID}/members [put]
func (app *application) replaceTeamMembersHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid team ID"))
		return
	}

	var payload []TeamMemberPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	for _, m := range payload {
		if err := Validate.Struct(m); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	if err := app.store.Teams.ReplaceMembers(r.Context(), teamID, toStoreMembers(payload)); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type SetLeaderPayload struct {
	Position int `json:"position" validate:"min=0"`
}

// setTeamLeaderHandler godoc
//
//	@Summary		Set the team leader
//	@Description	Marks the member at the given roster position as leader; every other flag clears
//	@Tags			teams
//	@Accept			json
//	@Produce		json
//	@Param			teamID	path	int					true	"Team ID"
//	@Param			payload	body	SetLeaderPayload	true	"Roster position"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/teams/{teamID}/leader [post]
func (app *application) setTeamLeaderHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid team ID"))
		return
	}

	var payload SetLeaderPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Teams.SetLeader(r.Context(), teamID, payload.Position); err != nil {
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

func (app *application) inviteCodec() (*hashids.HashID, error) {
	hd := hashids.NewData()
	hd.Salt = app.config.invite.salt
	hd.MinLength = 8
	return hashids.NewWithData(hd)
}

// createTeamInviteHandler godoc
//
//	@Summary		Create a team invite code
//	@Description	Returns an opaque code the owner can share; joining musicians redeem it
//	@Tags			teams
//	@Produce		json
//	@Param			teamID	path		int	true	"Team ID"
//	@Success		200		{object}	map[string]string
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/teams/{teamID}/invite [post]
func (app *application) createTeamInviteHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid team ID"))
		return
	}

	codec, err := app.inviteCodec()
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	code, err := codec.EncodeInt64([]int64{teamID})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"invite_code": code}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type JoinTeamPayload struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

// joinTeamHandler godoc
//
//	@Summary		Join a team with an invite code
//	@Description	Redeems an invite code: links the caller's musician profile to the team and adds a roster entry
//	@Tags			teams
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		JoinTeamPayload	true	"Invite code"
//	@Success		200		{object}	store.Team
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error	"No musician profile or unknown team"
//	@Security		ApiKeyAuth
//	@Router			/teams/join [post]
func (app *application) joinTeamHandler(w http.ResponseWriter, r *http.Request) {
	var payload JoinTeamPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	codec, err := app.inviteCodec()
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	ids, err := codec.DecodeInt64WithError(payload.InviteCode)
	if err != nil || len(ids) != 1 {
		app.badRequestResponse(w, r, errors.New("invalid invite code"))
		return
	}
	teamID := ids[0]

	user := getUserFromContext(r)

	musician, err := app.store.Musicians.GetByOwner(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, errors.New("create a musician profile before joining a team"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	team, err := app.store.Teams.GetByID(r.Context(), teamID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	previousTeamID := musician.TeamID
	musician.TeamID = &teamID
	if err := app.profiles.SaveMusician(r.Context(), musician, previousTeamID); err != nil {
		app.saveMusicianError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, team); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getTeamHandler godoc
//
//	@Summary		Get a team
//	@Tags			teams
//	@Produce		json
//	@Param			teamID	path		int	true	"Team ID"
//	@Success		200		{object}	store.Team
//	@Failure		404		{object}	error
//	@Router			/teams/{teamID} [get]
func (app *application) getTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid team ID"))
		return
	}

	team, err := app.store.Teams.GetByID(r.Context(), teamID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, team); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listTeamsHandler godoc
//
//	@Summary		List teams
//	@Tags			teams
//	@Produce		json
//	@Success		200	{array}	store.Team
//	@Router			/teams [get]
func (app *application) listTeamsHandler(w http.ResponseWriter, r *http.Request) {
	teams, err := app.store.Teams.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, teams); err != nil {
		app.internalServerError(w, r, err)
	}
}

// affiliationDriftHandler godoc
//
//	@Summary		Report affiliation drift
//	@Description	Scans musician/team pairs for roster divergence in both directions; reports only, heals nothing
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/admin/affiliations/drift [get]
func (app *application) affiliationDriftHandler(w http.ResponseWriter, r *http.Request) {
	drifts, err := app.profiles.Reconcile(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"count":  len(drifts),
		"drifts": drifts,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
