// Package services holds the application operations behind the HTTP
// handlers. Every multi-record write runs inside store.WithTx.
package services

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/notify"
)

// ImageStorer transcodes and uploads a picture, returning its URL
type ImageStorer interface {
	Store(ctx context.Context, prefix string, r io.Reader) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// publish hands an event to the sink. Events a user causes on their own
// content are skipped and delivery errors only get logged.
func publish(ctx context.Context, sink notify.Sink, event notify.Event) {
	if sink == nil || event.RecipientID == "" || event.RecipientID == event.ActorID {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := sink.Publish(ctx, event); err != nil {
		logger.Get().Warn("Failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("recipient_id", event.RecipientID),
			zap.Error(err),
		)
	}
}
