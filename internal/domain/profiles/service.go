// Package profiles keeps a musician's team affiliation and the team's
// roster in step across profile saves. The musician write and the roster
// writes are separate store calls with no spanning transaction; a failure
// between them leaves reconcilable drift rather than rolling back.
package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"go.uber.org/zap"
)

var ErrMissingRequired = errors.New("name, instruments and start year are required")

type MusicianStore interface {
	Create(ctx context.Context, musician *store.Musician) error
	GetByID(ctx context.Context, musicianID int64) (*store.Musician, error)
	List(ctx context.Context) ([]store.Musician, error)
	Update(ctx context.Context, musicianID int64, updates map[string]interface{}) error
}

type TeamStore interface {
	Create(ctx context.Context, team *store.Team) error
	GetByID(ctx context.Context, teamID int64) (*store.Team, error)
	List(ctx context.Context) ([]store.Team, error)
	Update(ctx context.Context, teamID int64, updates map[string]interface{}) error
	ReplaceMembers(ctx context.Context, teamID int64, members []store.TeamMember) error
	AddMember(ctx context.Context, teamID int64, member store.TeamMember) error
	RemoveMember(ctx context.Context, teamID, musicianID int64) error
}

// DriftError reports that the musician record was written but a roster
// write failed afterwards, so the two sides may disagree until the next
// save or a reconcile pass.
type DriftError struct {
	MusicianID int64
	TeamID     int64
	Err        error
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("musician %d saved but team %d roster update failed: %v", e.MusicianID, e.TeamID, e.Err)
}

func (e *DriftError) Unwrap() error { return e.Err }

// Drift is one detected divergence between a musician record and a roster.
type Drift struct {
	MusicianID int64  `json:"musician_id"`
	TeamID     int64  `json:"team_id"`
	Direction  string `json:"direction"` // missing_member | orphan_member
}

type Service struct {
	musicians MusicianStore
	teams     TeamStore
	logger    *zap.SugaredLogger
}

func NewService(musicians MusicianStore, teams TeamStore, logger *zap.SugaredLogger) (*Service, error) {
	if musicians == nil {
		return nil, errors.New("profiles: musician store is required")
	}
	if teams == nil {
		return nil, errors.New("profiles: team store is required")
	}
	return &Service{musicians: musicians, teams: teams, logger: logger}, nil
}

// SaveMusician writes the musician record, then updates the affected team
// rosters when the affiliation changed. previousTeamID is the affiliation
// the edit session started from (nil on create). Only the delta is touched:
// moving from T1 to T2 removes the entry from T1 and adds it to T2, and
// leaves every other member alone. Re-running the same save is a no-op on
// the rosters.
func (s *Service) SaveMusician(ctx context.Context, musician *store.Musician, previousTeamID *int64) error {
	if musician.Name == "" || len(musician.Instruments) == 0 || musician.StartYear == 0 {
		return ErrMissingRequired
	}

	if musician.ID == 0 {
		if err := s.musicians.Create(ctx, musician); err != nil {
			return err
		}
	} else {
		updates := map[string]interface{}{
			"name":          musician.Name,
			"instruments":   musician.Instruments,
			"skill_level":   musician.SkillLevel,
			"start_year":    musician.StartYear,
			"profile":       musician.Profile,
			"tags":          musician.Tags,
			"photos":        musician.Photos,
			"youtube_url":   musician.YoutubeURL,
			"instagram_url": musician.InstagramURL,
			"team_id":       musician.TeamID,
		}
		if err := s.musicians.Update(ctx, musician.ID, updates); err != nil {
			return err
		}
	}

	if sameTeam(previousTeamID, musician.TeamID) {
		return nil
	}

	if previousTeamID != nil {
		if err := s.teams.RemoveMember(ctx, *previousTeamID, musician.ID); err != nil {
			return &DriftError{MusicianID: musician.ID, TeamID: *previousTeamID, Err: err}
		}
	}
	if musician.TeamID != nil {
		if err := s.teams.AddMember(ctx, *musician.TeamID, MemberFromMusician(musician)); err != nil {
			return &DriftError{MusicianID: musician.ID, TeamID: *musician.TeamID, Err: err}
		}
	}
	return nil
}

func sameTeam(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// MemberFromMusician derives the roster entry a linked musician appears as:
// profile name, first instrument, and the back-references to the profile.
func MemberFromMusician(m *store.Musician) store.TeamMember {
	instrument := ""
	if len(m.Instruments) > 0 {
		instrument = m.Instruments[0]
	}
	musicianID := m.ID
	ownerID := m.OwnerID
	return store.TeamMember{
		Name:       m.Name,
		Instrument: instrument,
		MusicianID: &musicianID,
		OwnerID:    &ownerID,
	}
}

// SaveTeam writes the team fields and the roster verbatim, last writer
// wins. It deliberately never writes back to any musician record: removing
// a linked member here does not clear that musician's team_id. The
// resulting divergence, if any, shows up in Reconcile.
func (s *Service) SaveTeam(ctx context.Context, team *store.Team, members []store.TeamMember) error {
	if team.TeamName == "" {
		return errors.New("team name is required")
	}

	if team.ID == 0 {
		team.Members = members
		return s.teams.Create(ctx, team)
	}

	updates := map[string]interface{}{
		"team_name":     team.TeamName,
		"description":   team.Description,
		"region":        team.Region,
		"tags":          team.Tags,
		"photos":        team.Photos,
		"youtube_url":   team.YoutubeURL,
		"instagram_url": team.InstagramURL,
	}
	if err := s.teams.Update(ctx, team.ID, updates); err != nil {
		return err
	}
	return s.teams.ReplaceMembers(ctx, team.ID, members)
}

// SetLeader returns the roster with exactly the member at index marked as
// leader. An index outside the roster clears the flag everywhere.
func SetLeader(members []store.TeamMember, index int) []store.TeamMember {
	out := make([]store.TeamMember, len(members))
	for i, m := range members {
		m.IsLeader = i == index
		out[i] = m
	}
	return out
}

// Reconcile scans every musician/team pair for affiliation drift in both
// directions. It only reports; nothing is healed automatically.
func (s *Service) Reconcile(ctx context.Context) ([]Drift, error) {
	musicians, err := s.musicians.List(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, err
	}

	rosters := make(map[int64]map[int64]bool) // team id -> musician ids on roster
	for _, t := range teams {
		ids := make(map[int64]bool)
		for _, m := range t.Members {
			if m.MusicianID != nil {
				ids[*m.MusicianID] = true
			}
		}
		rosters[t.ID] = ids
	}

	affiliated := make(map[int64]int64) // musician id -> claimed team id
	var drifts []Drift
	for _, m := range musicians {
		if m.TeamID == nil {
			continue
		}
		affiliated[m.ID] = *m.TeamID
		if !rosters[*m.TeamID][m.ID] {
			drifts = append(drifts, Drift{MusicianID: m.ID, TeamID: *m.TeamID, Direction: "missing_member"})
		}
	}
	for _, t := range teams {
		for id := range rosters[t.ID] {
			if affiliated[id] != t.ID {
				drifts = append(drifts, Drift{MusicianID: id, TeamID: t.ID, Direction: "orphan_member"})
			}
		}
	}

	if len(drifts) > 0 && s.logger != nil {
		s.logger.Warnw("affiliation drift detected", "count", len(drifts))
	}
	return drifts, nil
}
