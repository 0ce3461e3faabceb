package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Performance struct {
	ID       int64     `json:"id"`
	VenueID  int64     `json:"venue_id"`
	Title    string    `json:"title"`
	DateTime time.Time `json:"date_time"`

	// Joined fields
	VenueName string `json:"venue_name,omitempty"`
}

type PerformancesStore struct {
	db *pgxpool.Pool
}

func (s *PerformancesStore) Create(ctx context.Context, performance *Performance) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO performances (venue_id, title, date_time)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return s.db.QueryRow(ctx, query,
		performance.VenueID,
		performance.Title,
		performance.DateTime,
	).Scan(&performance.ID)
}

// ListUpcoming returns performances from today onward across all venues,
// soonest first, for the schedule tab.
func (s *PerformancesStore) ListUpcoming(ctx context.Context) ([]Performance, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT p.id, p.venue_id, p.title, p.date_time, v.name
		FROM performances p
		JOIN venues v ON v.id = p.venue_id
		WHERE p.date_time >= CURRENT_DATE
		ORDER BY p.date_time ASC
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var performances []Performance
	for rows.Next() {
		var p Performance
		if err := rows.Scan(&p.ID, &p.VenueID, &p.Title, &p.DateTime, &p.VenueName); err != nil {
			return nil, err
		}
		performances = append(performances, p)
	}
	return performances, rows.Err()
}

func (s *PerformancesStore) ListByVenue(ctx context.Context, venueID int64) ([]Performance, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT id, venue_id, title, date_time
		FROM performances
		WHERE venue_id = $1
		ORDER BY date_time ASC
	`
	rows, err := s.db.Query(ctx, query, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var performances []Performance
	for rows.Next() {
		var p Performance
		if err := rows.Scan(&p.ID, &p.VenueID, &p.Title, &p.DateTime); err != nil {
			return nil, err
		}
		performances = append(performances, p)
	}
	return performances, rows.Err()
}
