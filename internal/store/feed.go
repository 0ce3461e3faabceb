package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Feed post categories as the composer presents them.
const (
	CategorySeekingMusician = "연주자 구함"
	CategorySeekingGig      = "연주 구함"
	CategoryChat            = "잡담"
)

type Post struct {
	ID       int64    `json:"id"`
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Images   []string `json:"images,omitempty"`
	AuthorID int64    `json:"author_id"`
	// Snapshot of the author at write time; deliberately never refreshed
	// when the profile changes later.
	AuthorName  string    `json:"author_name"`
	AuthorPhoto *string   `json:"author_photo,omitempty"`
	Instruments []string  `json:"instruments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined counters
	ViewCount int64 `json:"view_count"`
	LikeCount int64 `json:"like_count"`
}

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields
	AuthorName  string  `json:"author_name,omitempty"`
	AuthorPhoto *string `json:"author_photo,omitempty"`
}

type FeedStore struct {
	db *pgxpool.Pool
}

func (s *FeedStore) CreatePost(ctx context.Context, post *Post) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO feed_posts (category, title, content, images, author_id, author_name, author_photo, instruments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	return s.db.QueryRow(ctx, query,
		post.Category,
		post.Title,
		post.Content,
		post.Images,
		post.AuthorID,
		post.AuthorName,
		post.AuthorPhoto,
		post.Instruments,
	).Scan(&post.ID, &post.CreatedAt)
}

const postSelect = `
	SELECT p.id, p.category, p.title, p.content, p.images, p.author_id,
	       p.author_name, p.author_photo, p.instruments, p.created_at,
	       (SELECT COUNT(*) FROM post_views v WHERE v.post_id = p.id) AS view_count,
	       (SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id) AS like_count
	FROM feed_posts p
`

func scanPost(row pgx.Row, p *Post) error {
	return row.Scan(
		&p.ID, &p.Category, &p.Title, &p.Content, &p.Images, &p.AuthorID,
		&p.AuthorName, &p.AuthorPhoto, &p.Instruments, &p.CreatedAt,
		&p.ViewCount, &p.LikeCount,
	)
}

func (s *FeedStore) GetPost(ctx context.Context, postID int64) (*Post, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var p Post
	if err := scanPost(s.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, postID), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// listPostsQuery builds the feed query. view_count and like_count are output
// columns of the select, and ORDER BY can only use them by bare name, not
// inside an expression, so the popularity sort wraps the select and orders in
// the outer query.
func listPostsQuery(search, sort string) string {
	query := postSelect
	if search != "" {
		query += ` WHERE p.title ILIKE '%' || $1 || '%' OR p.content ILIKE '%' || $1 || '%'`
	}
	if sort == "popular" {
		return `SELECT * FROM (` + query + `) posts ORDER BY (view_count + like_count) DESC, created_at DESC`
	}
	return query + ` ORDER BY p.created_at DESC`
}

// ListPosts returns the feed, newest first, or by likes+views when sort is
// "popular". Search matches title and content.
func (s *FeedStore) ListPosts(ctx context.Context, search, sort string) ([]Post, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	args := []interface{}{}
	if search != "" {
		args = append(args, search)
	}

	rows, err := s.db.Query(ctx, listPostsQuery(search, sort), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := scanPost(rows, &p); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// AddView records that the user opened the post; repeat views are ignored.
func (s *FeedStore) AddView(ctx context.Context, postID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
		INSERT INTO post_views (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	_, err := s.db.Exec(ctx, q, postID, userID)
	return err
}

func (s *FeedStore) Like(ctx context.Context, postID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	_, err := s.db.Exec(ctx, q, postID, userID)
	return err
}

func (s *FeedStore) Unlike(ctx context.Context, postID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return err
}

func (s *FeedStore) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`
	err := s.db.QueryRow(ctx, q, postID, userID).Scan(&exists)
	return exists, err
}

func (s *FeedStore) CreateComment(ctx context.Context, comment *Comment) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		INSERT INTO post_comments (post_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return s.db.QueryRow(ctx, query,
		comment.PostID,
		comment.AuthorID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (s *FeedStore) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
		SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, u.name, u.photo_url
		FROM post_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := s.db.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.AuthorName, &c.AuthorPhoto); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
