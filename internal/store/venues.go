package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Venue represents a jazz bar profile in the database
type Venue struct {
	ID             int64     `json:"id"`
	OwnerID        int64     `json:"owner_id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Description    *string   `json:"description,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	OperatingHours *string   `json:"operating_hours,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	NaverMapsURL   *string   `json:"naver_maps_url,omitempty"`
	InstagramURL   *string   `json:"instagram_url,omitempty"`
	YoutubeURL     *string   `json:"youtube_url,omitempty"`
	WebsiteURL     *string   `json:"website_url,omitempty"`
	Photos         []string  `json:"photos,omitempty"`
	GooglePlaceID  *string   `json:"google_place_id,omitempty"`
	TotalRating    int64     `json:"total_rating"`
	RatingCount    int64     `json:"rating_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type VenuesStore struct {
	db *pgxpool.Pool
}

// checkIfVenueExists checks if a venue with the same name and owner already exists
func (s *VenuesStore) checkIfVenueExists(ctx context.Context, name string, ownerID int64) (bool, error) {
	var existingVenueID int64
	err := s.db.QueryRow(ctx,
		`SELECT id FROM venues WHERE name = $1 AND owner_id = $2`,
		name, ownerID).Scan(&existingVenueID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// Create creates a new venue in the database
func (s *VenuesStore) Create(ctx context.Context, venue *Venue) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	exists, err := s.checkIfVenueExists(ctx, venue.Name, venue.OwnerID)
	if err != nil {
		return fmt.Errorf("error checking if venue exists: %w", err)
	}
	if exists {
		return ErrConflict
	}

	query := `
		INSERT INTO venues (owner_id, name, address, description, tags, operating_hours,
		                    latitude, longitude, naver_maps_url, instagram_url, youtube_url,
		                    website_url, photos, google_place_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`
	return s.db.QueryRow(ctx, query,
		venue.OwnerID,
		venue.Name,
		venue.Address,
		venue.Description,
		venue.Tags,
		venue.OperatingHours,
		venue.Latitude,
		venue.Longitude,
		venue.NaverMapsURL,
		venue.InstagramURL,
		venue.YoutubeURL,
		venue.WebsiteURL,
		venue.Photos,
		venue.GooglePlaceID,
	).Scan(&venue.ID, &venue.CreatedAt, &venue.UpdatedAt)
}

const venueColumns = `id, owner_id, name, address, description, tags, operating_hours,
	latitude, longitude, naver_maps_url, instagram_url, youtube_url, website_url,
	photos, google_place_id, total_rating, rating_count, created_at, updated_at`

func scanVenue(row pgx.Row, v *Venue) error {
	return row.Scan(
		&v.ID, &v.OwnerID, &v.Name, &v.Address, &v.Description, &v.Tags, &v.OperatingHours,
		&v.Latitude, &v.Longitude, &v.NaverMapsURL, &v.InstagramURL, &v.YoutubeURL, &v.WebsiteURL,
		&v.Photos, &v.GooglePlaceID, &v.TotalRating, &v.RatingCount, &v.CreatedAt, &v.UpdatedAt,
	)
}

// GetByID retrieves a venue by its ID.
func (s *VenuesStore) GetByID(ctx context.Context, venueID int64) (*Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM venues WHERE id = $1`, venueColumns)
	var v Venue
	if err := scanVenue(s.db.QueryRow(ctx, query, venueID), &v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (s *VenuesStore) List(ctx context.Context) ([]Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM venues ORDER BY name`, venueColumns)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []Venue
	for rows.Next() {
		var v Venue
		if err := scanVenue(rows, &v); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// Update updates a venue's data in the database. This is also the merge path
// for place enrichment: callers pass only the fields the Places API actually
// returned.
func (s *VenuesStore) Update(ctx context.Context, venueID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE venues SET "
	args := []interface{}{}
	argCounter := 1

	for key, value := range updates {
		switch key {
		case "name", "address", "description", "operating_hours", "naver_maps_url",
			"instagram_url", "youtube_url", "website_url", "google_place_id":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		case "latitude", "longitude":
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
	args = append(args, venueID)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPhotoURL adds a new photo URL to a venue's photos array
func (s *VenuesStore) AddPhotoURL(ctx context.Context, venueID int64, photoURL string) error {
	query := `
		UPDATE venues
		SET photos = array_append(photos, $1)
		WHERE id = $2
	`
	_, err := s.db.Exec(ctx, query, photoURL, venueID)
	if err != nil {
		return fmt.Errorf("failed to add photo URL: %w", err)
	}
	return nil
}

// RemovePhotoURL removes a specific photo URL from a venue's photos array
func (s *VenuesStore) RemovePhotoURL(ctx context.Context, venueID int64, photoURL string) error {
	query := `
		UPDATE venues
		SET photos = array_remove(photos, $1)
		WHERE id = $2
	`
	_, err := s.db.Exec(ctx, query, photoURL, venueID)
	if err != nil {
		return fmt.Errorf("failed to remove photo URL: %w", err)
	}
	return nil
}

// IsOwner checks if the user is the owner of the given venue
func (s *VenuesStore) IsOwner(ctx context.Context, venueID, userID int64) (bool, error) {
	var ownerID int64
	err := s.db.QueryRow(ctx, `SELECT owner_id FROM venues WHERE id = $1`, venueID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return ownerID == userID, nil
}

// ListGooglePlaceIDs returns venue id -> place id for every venue linked to
// a Google place, for the weekly refresh sweep.
func (s *VenuesStore) ListGooglePlaceIDs(ctx context.Context) (map[int64]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT id, google_place_id FROM venues WHERE google_place_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64]string)
	for rows.Next() {
		var id int64
		var placeID string
		if err := rows.Scan(&id, &placeID); err != nil {
			return nil, err
		}
		result[id] = placeID
	}
	return result, rows.Err()
}
