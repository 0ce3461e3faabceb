package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail = errors.New("a user with that email already exists")
)

// Account types users pick after first sign-in.
const (
	AccountMusician   = "musician"
	AccountVenueOwner = "venue_owner"
	AccountGeneral    = "general"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     password  `json:"-"`
	PhotoURL     *string   `json:"photo_url,omitempty"`
	AccountType  *string   `json:"account_type,omitempty"` // musician | venue_owner | general
	RefreshToken string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Password struct to store plain text and hash
type password struct {
	text *string `json:"-"`
	hash []byte  `json:"-"`
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

type UsersStore struct {
	db *pgxpool.Pool
}

func (s *UsersStore) create(ctx context.Context, tx pgx.Tx, user *User) error {
	query := `
	  INSERT INTO users (name, email, password, photo_url)
	  VALUES ($1, $2, $3, $4)
	  RETURNING id, created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		user.Name, user.Email, user.Password.hash, user.PhotoURL,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// pgx surfaces the violated constraint name in the error text
func isUniqueViolation(err error, constraint string) bool {
	return err != nil && strings.Contains(err.Error(), constraint)
}

// CreateAndInvite stores the user together with its activation invitation in
// one transaction; the caller emails the plain token.
func (s *UsersStore) CreateAndInvite(ctx context.Context, user *User, token string, invitationExp time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.create(ctx, tx, user); err != nil {
		return err
	}

	query := `INSERT INTO user_invitations (token, user_id, expiry) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, query, token, user.ID, time.Now().Add(invitationExp)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Activate flips the user active and burns the invitation, given the plain
// activation token.
func (s *UsersStore) Activate(ctx context.Context, token string) error {
	hash := sha256.Sum256([]byte(token))
	hashToken := hex.EncodeToString(hash[:])

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID int64
	query := `SELECT user_id FROM user_invitations WHERE token = $1 AND expiry > NOW()`
	if err := tx.QueryRow(ctx, query, hashToken).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET is_active = true, updated_at = NOW() WHERE id = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_invitations WHERE user_id = $1`, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const userColumns = `id, name, email, password, photo_url, account_type, refresh_token, is_active, created_at, updated_at`

func scanUser(row pgx.Row, u *User) error {
	var refreshToken *string
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password.hash, &u.PhotoURL, &u.AccountType,
		&refreshToken, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if refreshToken != nil {
		u.RefreshToken = *refreshToken
	}
	return err
}

func (s *UsersStore) GetByID(ctx context.Context, userID int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var u User
	if err := scanUser(s.db.QueryRow(ctx, query, userID), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 AND is_active = true`, userColumns)
	var u User
	if err := scanUser(s.db.QueryRow(ctx, query, email), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SetAccountType records the account type chosen after first sign-in. The
// choice is one-shot: a second call is a conflict.
func (s *UsersStore) SetAccountType(ctx context.Context, userID int64, accountType string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.Exec(ctx,
		`UPDATE users SET account_type = $1, updated_at = NOW() WHERE id = $2 AND account_type IS NULL`,
		accountType, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *UsersStore) SetProfile(ctx context.Context, url string, userID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET photo_url = $1 WHERE id = $2`, url, userID)
	return err
}

func (s *UsersStore) GetProfileUrl(ctx context.Context, userID int64) (string, error) {
	var photoURL *string
	err := s.db.QueryRow(ctx, `SELECT photo_url FROM users WHERE id = $1`, userID).Scan(&photoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve profile picture URL: %w", err)
	}
	if photoURL == nil {
		return "", nil
	}
	return *photoURL, nil
}

func (s *UsersStore) UpdateUser(ctx context.Context, userID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE users SET "
	args := []interface{}{}
	argCounter := 1

	for key, value := range updates {
		switch key {
		case "name", "photo_url":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		default:
			return fmt.Errorf("unsupported field: %s", key)
		}
	}

	query += fmt.Sprintf("updated_at = NOW() WHERE id = $%d", argCounter)
	args = append(args, userID)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, query, args...)
	return err
}

// Delete removes a user and its pending invitation, used to roll back
// registration when the activation email cannot be sent.
func (s *UsersStore) Delete(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_invitations WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *UsersStore) StoreRefreshToken(ctx context.Context, userID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `UPDATE users SET refresh_token = $1 WHERE id = $2`, token, userID)
	return err
}

func (s *UsersStore) ClearRefreshToken(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID)
	return err
}
