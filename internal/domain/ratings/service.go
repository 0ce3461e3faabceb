// Package ratings owns review submission and the denormalized rating
// aggregate kept on every rateable profile (venue, musician, team).
package ratings

import (
	"context"
	"errors"
	"strings"

	"github.com/THEGREATCJPark/jazzlink/internal/store"
	"go.uber.org/zap"
)

const maxContentLength = 500

var (
	ErrInvalidRating  = errors.New("rating must be an integer between 1 and 5")
	ErrEmptyContent   = errors.New("review content must not be empty")
	ErrContentTooLong = errors.New("review content exceeds 500 characters")
)

// Store is the transactional review store. Create must append the review and
// bump the entity's counter pair atomically.
type Store interface {
	Create(ctx context.Context, review *store.Review) error
	List(ctx context.Context, kind store.RateableKind, entityID int64) ([]store.Review, error)
	Stats(ctx context.Context, kind store.RateableKind, entityID int64) (int64, int64, error)
}

type Stats struct {
	TotalReviews int64   `json:"total_reviews"`
	Average      float64 `json:"average"`
}

type Service struct {
	reviews Store
	logger  *zap.SugaredLogger
}

func NewService(reviews Store, logger *zap.SugaredLogger) (*Service, error) {
	if reviews == nil {
		return nil, errors.New("ratings: review store is required")
	}
	return &Service{reviews: reviews, logger: logger}, nil
}

// Submit validates and persists one review. Everything past validation is a
// single store transaction, so a rejected submission never moves the
// counters and an accepted one moves them exactly once.
func (s *Service) Submit(ctx context.Context, kind store.RateableKind, entityID, authorID int64, rating int, content string, isAnonymous bool) (*store.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len([]rune(content)) > maxContentLength {
		return nil, ErrContentTooLong
	}

	review := &store.Review{
		EntityKind:  kind,
		EntityID:    entityID,
		AuthorID:    authorID,
		Rating:      rating,
		Content:     content,
		IsAnonymous: isAnonymous,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) List(ctx context.Context, kind store.RateableKind, entityID int64) ([]store.Review, error) {
	reviews, err := s.reviews.List(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}
	// Anonymous reviews keep their author on record but never expose it.
	for i := range reviews {
		if reviews[i].IsAnonymous {
			reviews[i].AuthorName = "익명"
			reviews[i].AuthorPhoto = nil
		}
	}
	return reviews, nil
}

func (s *Service) Stats(ctx context.Context, kind store.RateableKind, entityID int64) (Stats, error) {
	total, count, err := s.reviews.Stats(ctx, kind, entityID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalReviews: count, Average: Average(total, count)}, nil
}

// Average is the derived mean over the counter pair. A fresh entity with no
// reviews averages 0; there is no division by zero.
func Average(totalRating, ratingCount int64) float64 {
	if ratingCount == 0 {
		return 0
	}
	return float64(totalRating) / float64(ratingCount)
}
