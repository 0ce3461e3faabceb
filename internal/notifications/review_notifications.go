package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/9ssi7/exponent"
	"github.com/THEGREATCJPark/jazzlink/internal/store"
)

// SendReviewNotification tells the reviewed profile's owner that a new review
// landed. kind routes the deep link to the right profile screen.
func SendReviewNotification(ctx context.Context, push PushSender, storage *store.Storage, ownerID int64, kind store.RateableKind, entityID int64, rating int) error {
	tokensMap, err := storage.PushTokens.GetTokensByUserIDs(ctx, []int64{ownerID})
	if err != nil {
		return err
	}
	tokens := tokensMap[ownerID]
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	var screen string
	switch kind {
	case store.RateableVenue:
		screen = "venue-detail"
	case store.RateableMusician:
		screen = "musician-detail"
	case store.RateableTeam:
		screen = "team-detail"
	}

	title := "새 리뷰가 등록되었습니다"
	body := fmt.Sprintf("프로필에 별점 %d점 리뷰가 달렸어요 🎷", rating)

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			// Drives deep linking when the notification is tapped.
			Data: map[string]string{
				"type":     "review",
				"kind":     string(kind),
				"entityId": fmt.Sprintf("%d", entityID),
				"screen":   screen,
			},
		})
	}

	_, err = push.Publish(ctx, msgs)
	return err
}

// SendRosterNotification tells a musician's owner that a team roster change
// touched their linked profile.
func SendRosterNotification(ctx context.Context, push PushSender, storage *store.Storage, ownerID int64, teamName string, added bool) error {
	tokensMap, err := storage.PushTokens.GetTokensByUserIDs(ctx, []int64{ownerID})
	if err != nil {
		return err
	}
	tokens := tokensMap[ownerID]
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	var title, body string
	if added {
		title = "팀에 합류했습니다"
		body = fmt.Sprintf("%s 팀 멤버로 등록되었어요 🎉", teamName)
	} else {
		title = "팀 구성이 변경되었습니다"
		body = fmt.Sprintf("%s 팀 멤버에서 제외되었어요", teamName)
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":   "roster",
				"screen": "my-musician-profile",
			},
		})
	}

	_, err = push.Publish(ctx, msgs)
	return err
}
