package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TeamMember struct {
	Name       string `json:"name"`
	Instrument string `json:"instrument"`
	IsLeader   bool   `json:"is_leader"`
	// Set only when the member is backed by a real musician profile.
	// Manually entered members carry neither.
	MusicianID *int64 `json:"musician_id,omitempty"`
	OwnerID    *int64 `json:"owner_id,omitempty"`
}

type Team struct {
	ID           int64        `json:"id"`
	OwnerID      int64        `json:"owner_id"`
	TeamName     string       `json:"team_name"`
	Description  *string      `json:"description,omitempty"`
	Region       *string      `json:"region,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Photos       []string     `json:"photos,omitempty"`
	YoutubeURL   *string      `json:"youtube_url,omitempty"`
	InstagramURL *string      `json:"instagram_url,omitempty"`
	TotalRating  int64        `json:"total_rating"`
	RatingCount  int64        `json:"rating_count"`
	Members      []TeamMember `json:"members"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type TeamsStore struct {
	db *pgxpool.Pool
}

// Create inserts the team row and its initial roster together.
func (s *TeamsStore) Create(ctx context.Context, team *Team) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO teams (owner_id, team_name, description, region, tags, photos, youtube_url, instagram_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		team.OwnerID,
		team.TeamName,
		team.Description,
		team.Region,
		team.Tags,
		team.Photos,
		team.YoutubeURL,
		team.InstagramURL,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertMembers(ctx, tx, team.ID, team.Members); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertMembers(ctx context.Context, tx pgx.Tx, teamID int64, members []TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, position, name, instrument, is_leader, musician_id, musician_owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, m := range members {
		if _, err := tx.Exec(ctx, query, teamID, i, m.Name, m.Instrument, m.IsLeader, m.MusicianID, m.OwnerID); err != nil {
			return err
		}
	}
	return nil
}

func (s *TeamsStore) GetByID(ctx context.Context, teamID int64) (*Team, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, owner_id, team_name, description, region, tags, photos,
		       youtube_url, instagram_url, total_rating, rating_count, created_at, updated_at
		FROM teams
		WHERE id = $1
	`
	var t Team
	err := s.db.QueryRow(ctx, query, teamID).Scan(
		&t.ID, &t.OwnerID, &t.TeamName, &t.Description, &t.Region, &t.Tags, &t.Photos,
		&t.YoutubeURL, &t.InstagramURL, &t.TotalRating, &t.RatingCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	members, err := s.members(ctx, teamID)
	if err != nil {
		return nil, err
	}
	t.Members = members
	return &t, nil
}

func (s *TeamsStore) members(ctx context.Context, teamID int64) ([]TeamMember, error) {
	query := `
		SELECT name, instrument, is_leader, musician_id, musician_owner_id
		FROM team_members
		WHERE team_id = $1
		ORDER BY position
	`
	rows, err := s.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.Name, &m.Instrument, &m.IsLeader, &m.MusicianID, &m.OwnerID); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *TeamsStore) List(ctx context.Context) ([]Team, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, owner_id, team_name, description, region, tags, photos,
		       youtube_url, instagram_url, total_rating, rating_count, created_at, updated_at
		FROM teams
		ORDER BY team_name
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		err := rows.Scan(
			&t.ID, &t.OwnerID, &t.TeamName, &t.Description, &t.Region, &t.Tags, &t.Photos,
			&t.YoutubeURL, &t.InstagramURL, &t.TotalRating, &t.RatingCount, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		members, err := s.members(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].Members = members
	}
	return teams, nil
}

// Update updates team fields in the database, leaving the roster alone.
func (s *TeamsStore) Update(ctx context.Context, teamID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE teams SET "
	args := []interface{}{}
	argCounter := 1

	for key, value := range updates {
		switch key {
		case "team_name", "description", "region", "youtube_url", "instagram_url":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		case "tags", "photos":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		default:
			return fmt.Errorf("unsupported field: %s", key)
		}
	}

	query += fmt.Sprintf("updated_at = NOW() WHERE id = $%d", argCounter)
	args = append(args, teamID)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceMembers rewrites the whole roster in one transaction. This is the
// last-writer-wins full-list write the team editor performs; it never
// touches any musician row.
func (s *TeamsStore) ReplaceMembers(ctx context.Context, teamID int64, members []TeamMember) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return err
	}
	if err := insertMembers(ctx, tx, teamID, members); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// AddMember appends a linked member to the roster unless an entry for the
// same musician is already there, so re-running a profile save cannot
// duplicate the row.
func (s *TeamsStore) AddMember(ctx context.Context, teamID int64, member TeamMember) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO team_members (team_id, position, name, instrument, is_leader, musician_id, musician_owner_id)
		SELECT $1, COALESCE((SELECT MAX(position) + 1 FROM team_members WHERE team_id = $1), 0), $2, $3, false, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM team_members WHERE team_id = $1 AND musician_id = $4
		)
	`
	_, err := s.db.Exec(ctx, query, teamID, member.Name, member.Instrument, member.MusicianID, member.OwnerID)
	return err
}

// RemoveMember drops the roster entry for a musician; removing an absent
// entry is a no-op.
func (s *TeamsStore) RemoveMember(ctx context.Context, teamID, musicianID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND musician_id = $2`,
		teamID, musicianID)
	return err
}

// SetLeader marks the member at the given roster position as leader and
// clears the flag everywhere else, in a single statement.
func (s *TeamsStore) SetLeader(ctx context.Context, teamID int64, position int) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx,
		`UPDATE team_members SET is_leader = (position = $2) WHERE team_id = $1`,
		teamID, position)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsOwner checks if the user is the owner of the given team
func (s *TeamsStore) IsOwner(ctx context.Context, teamID, userID int64) (bool, error) {
	var ownerID int64
	err := s.db.QueryRow(ctx, `SELECT owner_id FROM teams WHERE id = $1`, teamID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return ownerID == userID, nil
}
