package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RateableKind selects which profile table carries the denormalized
// rating counters for a review.
type RateableKind string

const (
	RateableVenue    RateableKind = "venue"
	RateableMusician RateableKind = "musician"
	RateableTeam     RateableKind = "team"
)

var ErrUnknownRateable = errors.New("unknown rateable kind")

func (k RateableKind) table() (string, error) {
	switch k {
	case RateableVenue:
		return "venues", nil
	case RateableMusician:
		return "musicians", nil
	case RateableTeam:
		return "teams", nil
	}
	return "", ErrUnknownRateable
}

type Review struct {
	ID          int64        `json:"id"`
	EntityKind  RateableKind `json:"entity_kind"`
	EntityID    int64        `json:"entity_id"`
	AuthorID    int64        `json:"author_id"`
	Rating      int          `json:"rating"` // 1-5
	Content     string       `json:"content"`
	IsAnonymous bool         `json:"is_anonymous"`
	CreatedAt   time.Time    `json:"created_at"`

	// Joined fields
	AuthorName  string  `json:"author_name,omitempty"`
	AuthorPhoto *string `json:"author_photo,omitempty"`
}

type ReviewsStore struct {
	db *pgxpool.Pool
}

// Create inserts the review and bumps the entity's total_rating and
// rating_count in one transaction. The entity row is locked first so two
// concurrent submissions serialize and each contributes its full delta;
// if the entity is gone the whole thing rolls back with ErrNotFound.
func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	table, err := review.EntityKind.table()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var totalRating, ratingCount int64
	lockQuery := fmt.Sprintf(`SELECT total_rating, rating_count FROM %s WHERE id = $1 FOR UPDATE`, table)
	if err := tx.QueryRow(ctx, lockQuery, review.EntityID).Scan(&totalRating, &ratingCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	insertQuery := `
        INSERT INTO reviews (entity_kind, entity_id, author_id, rating, content, is_anonymous)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `
	err = tx.QueryRow(ctx, insertQuery,
		review.EntityKind,
		review.EntityID,
		review.AuthorID,
		review.Rating,
		review.Content,
		review.IsAnonymous,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return err
	}

	updateQuery := fmt.Sprintf(`UPDATE %s SET total_rating = $1, rating_count = $2 WHERE id = $3`, table)
	if _, err := tx.Exec(ctx, updateQuery,
		totalRating+int64(review.Rating),
		ratingCount+1,
		review.EntityID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *ReviewsStore) List(ctx context.Context, kind RateableKind, entityID int64) ([]Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
        SELECT r.id, r.entity_kind, r.entity_id, r.author_id, r.rating, r.content,
               r.is_anonymous, r.created_at, u.name, u.photo_url
        FROM reviews r
        JOIN users u ON u.id = r.author_id
        WHERE r.entity_kind = $1 AND r.entity_id = $2
        ORDER BY r.created_at DESC
    `
	rows, err := s.db.Query(ctx, query, kind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID,
			&review.EntityKind,
			&review.EntityID,
			&review.AuthorID,
			&review.Rating,
			&review.Content,
			&review.IsAnonymous,
			&review.CreatedAt,
			&review.AuthorName,
			&review.AuthorPhoto,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// Stats reads the denormalized counter pair off the entity row itself, not
// an aggregate over the reviews table, so it reflects exactly what the
// submission transactions wrote.
func (s *ReviewsStore) Stats(ctx context.Context, kind RateableKind, entityID int64) (int64, int64, error) {
	table, err := kind.table()
	if err != nil {
		return 0, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var totalRating, ratingCount int64
	query := fmt.Sprintf(`SELECT total_rating, rating_count FROM %s WHERE id = $1`, table)
	if err := s.db.QueryRow(ctx, query, entityID).Scan(&totalRating, &ratingCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}
	return totalRating, ratingCount, nil
}
