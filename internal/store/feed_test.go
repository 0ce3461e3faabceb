package store

import (
	"strings"
	"testing"
)

func TestListPostsQueryDefaultOrdersByRecency(t *testing.T) {
	q := listPostsQuery("", "")

	if !strings.Contains(q, "ORDER BY p.created_at DESC") {
		t.Fatalf("default query not ordered by recency:\n%s", q)
	}
	if strings.Contains(q, "ORDER BY (view_count") {
		t.Fatalf("default query should not sort on counters:\n%s", q)
	}
}

func TestListPostsQueryPopularOrdersOnOutputColumns(t *testing.T) {
	q := listPostsQuery("", "popular")

	// The counters are output columns of the inner select; sorting on an
	// expression over them only resolves from an outer query.
	orderIdx := strings.Index(q, "ORDER BY (view_count + like_count) DESC")
	if orderIdx == -1 {
		t.Fatalf("popular query missing counter sort:\n%s", q)
	}
	closeIdx := strings.LastIndex(q, ") posts")
	if closeIdx == -1 || orderIdx < closeIdx {
		t.Fatalf("counter sort must sit outside the wrapped select:\n%s", q)
	}
	if strings.Contains(q[orderIdx:], "p.created_at") {
		t.Fatalf("outer ORDER BY cannot reference the inner alias:\n%s", q)
	}
}

func TestListPostsQuerySearchFiltersInsideWrap(t *testing.T) {
	q := listPostsQuery("색소폰", "popular")

	whereIdx := strings.Index(q, "ILIKE '%' || $1 || '%'")
	if whereIdx == -1 {
		t.Fatalf("search query missing title/content filter:\n%s", q)
	}
	closeIdx := strings.LastIndex(q, ") posts")
	if closeIdx == -1 || whereIdx > closeIdx {
		t.Fatalf("search filter must stay inside the wrapped select:\n%s", q)
	}
	if strings.Contains(q, "$2") {
		t.Fatalf("search binds a single parameter:\n%s", q)
	}
}
