// Package notifications delivers Expo push messages for review and team
// roster events.
package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// PushSender is the delivery seam for review and roster notifications; the
// message types stay the exponent SDK's so nothing gets re-marshalled on the
// way out.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
	PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error)
}
