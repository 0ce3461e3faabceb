package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Skill levels as the profile forms present them.
const (
	SkillBeginner     = "초보"
	SkillIntermediate = "중급"
	SkillPro          = "프로"
)

type Musician struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"owner_id"`
	Name         string    `json:"name"`
	Instruments  []string  `json:"instruments"`
	SkillLevel   string    `json:"skill_level"` // 초보 | 중급 | 프로
	StartYear    int       `json:"start_year"`
	Profile      *string   `json:"profile,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Photos       []string  `json:"photos,omitempty"`
	YoutubeURL   *string   `json:"youtube_url,omitempty"`
	InstagramURL *string   `json:"instagram_url,omitempty"`
	TeamID       *int64    `json:"team_id,omitempty"`
	TotalRating  int64     `json:"total_rating"`
	RatingCount  int64     `json:"rating_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type MusiciansStore struct {
	db *pgxpool.Pool
}

// checkIfMusicianExists checks if the owner already has a musician profile
func (s *MusiciansStore) checkIfMusicianExists(ctx context.Context, ownerID int64) (bool, error) {
	var existingMusicianID int64
	err := s.db.QueryRow(ctx,
		`SELECT id FROM musicians WHERE owner_id = $1`,
		ownerID).Scan(&existingMusicianID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

func (s *MusiciansStore) Create(ctx context.Context, musician *Musician) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	// Each account owns at most one profile; GetByOwner depends on it.
	exists, err := s.checkIfMusicianExists(ctx, musician.OwnerID)
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}

	query := `
		INSERT INTO musicians (owner_id, name, instruments, skill_level, start_year, profile,
		                       tags, photos, youtube_url, instagram_url, team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	return s.db.QueryRow(ctx, query,
		musician.OwnerID,
		musician.Name,
		musician.Instruments,
		musician.SkillLevel,
		musician.StartYear,
		musician.Profile,
		musician.Tags,
		musician.Photos,
		musician.YoutubeURL,
		musician.InstagramURL,
		musician.TeamID,
	).Scan(&musician.ID, &musician.CreatedAt, &musician.UpdatedAt)
}

const musicianColumns = `id, owner_id, name, instruments, skill_level, start_year, profile,
	tags, photos, youtube_url, instagram_url, team_id, total_rating, rating_count, created_at, updated_at`

func scanMusician(row pgx.Row, m *Musician) error {
	return row.Scan(
		&m.ID, &m.OwnerID, &m.Name, &m.Instruments, &m.SkillLevel, &m.StartYear, &m.Profile,
		&m.Tags, &m.Photos, &m.YoutubeURL, &m.InstagramURL, &m.TeamID,
		&m.TotalRating, &m.RatingCount, &m.CreatedAt, &m.UpdatedAt,
	)
}

func (s *MusiciansStore) GetByID(ctx context.Context, musicianID int64) (*Musician, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM musicians WHERE id = $1`, musicianColumns)
	var m Musician
	if err := scanMusician(s.db.QueryRow(ctx, query, musicianID), &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetByOwner returns the caller's own musician profile. Each account owns at
// most one.
func (s *MusiciansStore) GetByOwner(ctx context.Context, ownerID int64) (*Musician, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM musicians WHERE owner_id = $1`, musicianColumns)
	var m Musician
	if err := scanMusician(s.db.QueryRow(ctx, query, ownerID), &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *MusiciansStore) List(ctx context.Context) ([]Musician, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM musicians ORDER BY name`, musicianColumns)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var musicians []Musician
	for rows.Next() {
		var m Musician
		if err := scanMusician(rows, &m); err != nil {
			return nil, err
		}
		musicians = append(musicians, m)
	}
	return musicians, rows.Err()
}

// Update updates a musician's data in the database
func (s *MusiciansStore) Update(ctx context.Context, musicianID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE musicians SET "
	args := []interface{}{}
	argCounter := 1

	for key, value := range updates {
		switch key {
		case "name", "skill_level", "start_year", "profile", "youtube_url", "instagram_url", "team_id":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		case "instruments", "tags", "photos":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		default:
			return fmt.Errorf("unsupported field: %s", key)
		}
	}

	query += fmt.Sprintf("updated_at = NOW() WHERE id = $%d", argCounter)
	args = append(args, musicianID)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update musician: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsOwner checks if the user is the owner of the given musician profile
func (s *MusiciansStore) IsOwner(ctx context.Context, musicianID, userID int64) (bool, error) {
	var ownerID int64
	err := s.db.QueryRow(ctx, `SELECT owner_id FROM musicians WHERE id = $1`, musicianID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return ownerID == userID, nil
}
