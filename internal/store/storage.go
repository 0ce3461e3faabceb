package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		CreateAndInvite(ctx context.Context, user *User, token string, invitationExp time.Duration) error
		Activate(ctx context.Context, token string) error
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		SetAccountType(ctx context.Context, userID int64, accountType string) error
		SetProfile(ctx context.Context, url string, userID int64) error
		GetProfileUrl(ctx context.Context, userID int64) (string, error)
		UpdateUser(ctx context.Context, userID int64, updates map[string]interface{}) error
		StoreRefreshToken(ctx context.Context, userID int64, token string) error
		ClearRefreshToken(ctx context.Context, userID int64) error
		Delete(ctx context.Context, userID int64) error
	}
	Venues interface {
		Create(context.Context, *Venue) error
		GetByID(context.Context, int64) (*Venue, error)
		List(context.Context) ([]Venue, error)
		Update(ctx context.Context, venueID int64, updates map[string]interface{}) error
		AddPhotoURL(ctx context.Context, venueID int64, photoURL string) error
		RemovePhotoURL(ctx context.Context, venueID int64, photoURL string) error
		IsOwner(ctx context.Context, venueID, userID int64) (bool, error)
		ListGooglePlaceIDs(ctx context.Context) (map[int64]string, error)
	}
	Musicians interface {
		Create(context.Context, *Musician) error
		GetByID(context.Context, int64) (*Musician, error)
		GetByOwner(context.Context, int64) (*Musician, error)
		List(context.Context) ([]Musician, error)
		Update(ctx context.Context, musicianID int64, updates map[string]interface{}) error
		IsOwner(ctx context.Context, musicianID, userID int64) (bool, error)
	}
	Teams interface {
		Create(context.Context, *Team) error
		GetByID(context.Context, int64) (*Team, error)
		List(context.Context) ([]Team, error)
		Update(ctx context.Context, teamID int64, updates map[string]interface{}) error
		ReplaceMembers(ctx context.Context, teamID int64, members []TeamMember) error
		AddMember(ctx context.Context, teamID int64, member TeamMember) error
		RemoveMember(ctx context.Context, teamID, musicianID int64) error
		SetLeader(ctx context.Context, teamID int64, position int) error
		IsOwner(ctx context.Context, teamID, userID int64) (bool, error)
	}
	Reviews interface {
		Create(context.Context, *Review) error
		List(ctx context.Context, kind RateableKind, entityID int64) ([]Review, error)
		Stats(ctx context.Context, kind RateableKind, entityID int64) (int64, int64, error)
	}
	Feed interface {
		CreatePost(context.Context, *Post) error
		GetPost(ctx context.Context, postID int64) (*Post, error)
		ListPosts(ctx context.Context, search, sort string) ([]Post, error)
		AddView(ctx context.Context, postID, userID int64) error
		Like(ctx context.Context, postID, userID int64) error
		Unlike(ctx context.Context, postID, userID int64) error
		HasLiked(ctx context.Context, postID, userID int64) (bool, error)
		CreateComment(context.Context, *Comment) error
		ListComments(ctx context.Context, postID int64) ([]Comment, error)
	}
	Performances interface {
		Create(context.Context, *Performance) error
		ListUpcoming(context.Context) ([]Performance, error)
		ListByVenue(ctx context.Context, venueID int64) ([]Performance, error)
	}
	PushTokens interface {
		AddOrUpdatePushToken(ctx context.Context, userID int64, token string, deviceInfo []byte) error
		RemovePushToken(ctx context.Context, userID int64, token string) error
		RemoveTokensByTokenList(ctx context.Context, tokens []string) error
		GetTokensByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error)
		PruneStaleTokens(ctx context.Context, olderThan time.Duration) error
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:        &UsersStore{db},
		Venues:       &VenuesStore{db},
		Musicians:    &MusiciansStore{db},
		Teams:        &TeamsStore{db},
		Reviews:      &ReviewsStore{db},
		Feed:         &FeedStore{db},
		Performances: &PerformancesStore{db},
		PushTokens:   &PushTokensStore{db},
	}
}
