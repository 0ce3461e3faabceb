package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/9ssi7/exponent"
	"github.com/THEGREATCJPark/jazzlink/internal/store"
)

type fakeSender struct {
	published []*exponent.Message
}

func (f *fakeSender) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	f.published = append(f.published, msgs...)
	return nil, nil
}

func (f *fakeSender) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	f.published = append(f.published, msg)
	return nil, nil
}

type stubPushTokenStore struct {
	tokens map[int64][]string
}

func (s *stubPushTokenStore) AddOrUpdatePushToken(ctx context.Context, userID int64, token string, deviceInfo []byte) error {
	return nil
}

func (s *stubPushTokenStore) RemovePushToken(ctx context.Context, userID int64, token string) error {
	return nil
}

func (s *stubPushTokenStore) RemoveTokensByTokenList(ctx context.Context, tokens []string) error {
	return nil
}

func (s *stubPushTokenStore) GetTokensByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string)
	for _, id := range userIDs {
		if t, ok := s.tokens[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (s *stubPushTokenStore) PruneStaleTokens(ctx context.Context, olderThan time.Duration) error {
	return nil
}

func TestSendReviewNotificationDeepLink(t *testing.T) {
	push := &fakeSender{}
	storage := &store.Storage{
		PushTokens: &stubPushTokenStore{tokens: map[int64][]string{
			7: {"ExponentPushToken[aaa]", "ExponentPushToken[bbb]"},
		}},
	}

	err := SendReviewNotification(context.Background(), push, storage, 7, store.RateableMusician, 42, 5)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(push.published) != 2 {
		t.Fatalf("expected one message per token, got %d", len(push.published))
	}
	msg := push.published[0]
	if msg.Data["screen"] != "musician-detail" || msg.Data["entityId"] != "42" {
		t.Fatalf("wrong deep link data: %v", msg.Data)
	}
	if msg.Data["type"] != "review" {
		t.Fatalf("wrong type: %v", msg.Data)
	}
}

func TestSendReviewNotificationNoTokens(t *testing.T) {
	push := &fakeSender{}
	storage := &store.Storage{
		PushTokens: &stubPushTokenStore{tokens: map[int64][]string{}},
	}

	err := SendReviewNotification(context.Background(), push, storage, 7, store.RateableVenue, 1, 3)
	if err == nil {
		t.Fatal("expected error when the owner has no tokens")
	}
	if len(push.published) != 0 {
		t.Fatalf("nothing should be published without tokens, got %d", len(push.published))
	}
}

func TestSendRosterNotificationTitles(t *testing.T) {
	push := &fakeSender{}
	storage := &store.Storage{
		PushTokens: &stubPushTokenStore{tokens: map[int64][]string{
			3: {"ExponentPushToken[ccc]"},
		}},
	}

	if err := SendRosterNotification(context.Background(), push, storage, 3, "Blue Note Quintet", true); err != nil {
		t.Fatalf("send added: %v", err)
	}
	if err := SendRosterNotification(context.Background(), push, storage, 3, "Blue Note Quintet", false); err != nil {
		t.Fatalf("send removed: %v", err)
	}

	if len(push.published) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(push.published))
	}
	if push.published[0].Title == push.published[1].Title {
		t.Fatal("join and leave must read differently")
	}
	if push.published[0].Data["screen"] != "my-musician-profile" {
		t.Fatalf("wrong screen: %v", push.published[0].Data)
	}
}
