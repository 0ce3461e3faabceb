package ratings

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/THEGREATCJPark/jazzlink/internal/store"
)

// stubReviewStore mimics the transactional review store: the counter bump
// and the review insert happen under one lock, and a missing entity fails
// with no partial write.
type stubReviewStore struct {
	mu      sync.Mutex
	totals  map[int64]int64
	counts  map[int64]int64
	reviews []store.Review
	nextID  int64
	missing map[int64]bool
}

func newStubReviewStore(entityIDs ...int64) *stubReviewStore {
	s := &stubReviewStore{
		totals:  make(map[int64]int64),
		counts:  make(map[int64]int64),
		missing: make(map[int64]bool),
	}
	for _, id := range entityIDs {
		s.totals[id] = 0
		s.counts[id] = 0
	}
	return s
}

func (s *stubReviewStore) Create(ctx context.Context, review *store.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.missing[review.EntityID] {
		return store.ErrNotFound
	}
	if _, ok := s.counts[review.EntityID]; !ok {
		return store.ErrNotFound
	}

	s.nextID++
	review.ID = s.nextID
	review.CreatedAt = time.Now()
	s.reviews = append(s.reviews, *review)
	s.totals[review.EntityID] += int64(review.Rating)
	s.counts[review.EntityID]++
	return nil
}

func (s *stubReviewStore) List(ctx context.Context, kind store.RateableKind, entityID int64) ([]store.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Review
	for _, r := range s.reviews {
		if r.EntityID == entityID && r.EntityKind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubReviewStore) Stats(ctx context.Context, kind store.RateableKind, entityID int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.counts[entityID]; !ok {
		return 0, 0, store.ErrNotFound
	}
	return s.totals[entityID], s.counts[entityID], nil
}

func newTestService(t *testing.T, reviews Store) *Service {
	t.Helper()
	svc, err := NewService(reviews, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresStore(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatal("expected error creating service without store")
	}
}

func TestSubmitRejectsInvalidRating(t *testing.T) {
	svc := newTestService(t, newStubReviewStore(1))

	for _, rating := range []int{0, -1, 6, 100} {
		if _, err := svc.Submit(context.Background(), store.RateableVenue, 1, 7, rating, "great set", false); err != ErrInvalidRating {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}

	stats, err := svc.Stats(context.Background(), store.RateableVenue, 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalReviews != 0 {
		t.Fatalf("rejected submissions must not move counters, count=%d", stats.TotalReviews)
	}
}

func TestSubmitRejectsEmptyContent(t *testing.T) {
	svc := newTestService(t, newStubReviewStore(1))

	if _, err := svc.Submit(context.Background(), store.RateableVenue, 1, 7, 5, "   ", false); err != ErrEmptyContent {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestSubmitMissingEntity(t *testing.T) {
	reviews := newStubReviewStore(1)
	reviews.missing[1] = true
	svc := newTestService(t, reviews)

	if _, err := svc.Submit(context.Background(), store.RateableVenue, 1, 7, 4, "good", false); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(reviews.reviews) != 0 {
		t.Fatal("no review may be written when the entity is gone")
	}
}

func TestConcurrentSubmissionsAllCounted(t *testing.T) {
	reviews := newStubReviewStore(42)
	svc := newTestService(t, reviews)

	ratings := []int{1, 2, 3, 4, 5, 5, 4, 3, 2, 1, 5, 5}
	var wantTotal int64
	for _, r := range ratings {
		wantTotal += int64(r)
	}

	var wg sync.WaitGroup
	for _, r := range ratings {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			if _, err := svc.Submit(context.Background(), store.RateableMusician, 42, int64(rating), rating, "review", false); err != nil {
				t.Errorf("submit: %v", err)
			}
		}(r)
	}
	wg.Wait()

	total, count, err := reviews.Stats(context.Background(), store.RateableMusician, 42)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != int64(len(ratings)) {
		t.Fatalf("expected count %d got %d", len(ratings), count)
	}
	if total != wantTotal {
		t.Fatalf("expected total %d got %d", wantTotal, total)
	}
	if got := Average(total, count); got != float64(wantTotal)/float64(len(ratings)) {
		t.Fatalf("average mismatch: %v", got)
	}
}

func TestAverageZeroReviews(t *testing.T) {
	got := Average(0, 0)
	if got != 0 {
		t.Fatalf("expected 0 average for fresh entity, got %v", got)
	}
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("average must never be NaN/Inf, got %v", got)
	}
}

func TestReviewsAreImmutable(t *testing.T) {
	reviews := newStubReviewStore(9)
	svc := newTestService(t, reviews)

	first, err := svc.Submit(context.Background(), store.RateableTeam, 9, 1, 2, "rough night", false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.Submit(context.Background(), store.RateableTeam, 9, int64(i+2), 5, "better", false); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	stored, err := svc.List(context.Background(), store.RateableTeam, 9)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range stored {
		if r.ID == first.ID {
			if r.Rating != 2 || r.Content != "rough night" {
				t.Fatalf("original review mutated: %+v", r)
			}
			return
		}
	}
	t.Fatal("original review missing from list")
}

func TestListAnonymizesAuthor(t *testing.T) {
	reviews := newStubReviewStore(3)
	svc := newTestService(t, reviews)

	if _, err := svc.Submit(context.Background(), store.RateableVenue, 3, 11, 4, "nice room", true); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// The store still records the author even for anonymous reviews.
	if reviews.reviews[0].AuthorID != 11 {
		t.Fatalf("author must stay on record, got %d", reviews.reviews[0].AuthorID)
	}

	listed, err := svc.List(context.Background(), store.RateableVenue, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if listed[0].AuthorName != "익명" || listed[0].AuthorPhoto != nil {
		t.Fatalf("anonymous review leaked author display fields: %+v", listed[0])
	}
}
