package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/models"
	"masterboxer.com/project-instaclone/notify"
)

const pushBodyLimit = 100

func InitFirebase(ctx context.Context, credentialsPath string) (*messaging.Client, error) {
	log := logger.Get()
	log.Info("[FCM] Initializing Firebase", zap.String("credentials", credentialsPath))

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Info("[FCM] Firebase Messaging client initialized")
	return client, nil
}

type MulticastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type DeviceTokenStore interface {
	GetUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
	ListDeviceTokens(ctx context.Context, userID string) ([]string, error)
	DeleteDeviceToken(ctx context.Context, token string) error
}

// PushSink sends events to the recipient's registered devices and forgets
// tokens that FCM reports as unregistered.
type PushSink struct {
	client MulticastSender
	tokens DeviceTokenStore
}

func NewPushSink(client MulticastSender, tokens DeviceTokenStore) *PushSink {
	return &PushSink{client: client, tokens: tokens}
}

func (p *PushSink) Publish(ctx context.Context, event notify.Event) error {
	tokens, err := p.tokens.ListDeviceTokens(ctx, event.RecipientID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	actor := "Someone"
	if summaries, err := p.tokens.GetUserSummaries(ctx, []string{event.ActorID}); err == nil {
		if s, ok := summaries[event.ActorID]; ok && s.Username != "" {
			actor = s.Username
		}
	}

	title, body := pushContent(event, actor)
	message := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":    string(event.Type),
			"actorId": event.ActorID,
			"postId":  event.PostID,
		},
		Tokens: tokens,
	}

	response, err := p.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("multicast send failed: %w", err)
	}

	log := logger.Get()
	log.Debug("[FCM] Multicast result",
		zap.String("recipient_id", event.RecipientID),
		zap.Int("success", response.SuccessCount),
		zap.Int("failure", response.FailureCount),
	)

	for i, resp := range response.Responses {
		if resp.Success || i >= len(tokens) {
			continue
		}

		token := tokens[i]
		if messaging.IsUnregistered(resp.Error) {
			log.Info("[FCM] Deleting dead token", zap.String("recipient_id", event.RecipientID))
			if err := p.tokens.DeleteDeviceToken(ctx, token); err != nil {
				log.Warn("[FCM] Failed to delete token", zap.Error(err))
			}
			continue
		}
		log.Warn("[FCM] Token error", zap.Error(resp.Error))
	}
	return nil
}

func pushContent(event notify.Event, actor string) (string, string) {
	switch event.Type {
	case notify.EventMessage:
		return actor, truncate(event.Body, pushBodyLimit)
	case notify.EventLike:
		return "New like", actor + " liked your post"
	case notify.EventDislike:
		return "Post update", actor + " removed their like"
	case notify.EventComment:
		return "New comment", actor + ": " + truncate(event.Body, pushBodyLimit)
	case notify.EventFollow:
		return "New follower", actor + " started following you"
	default:
		return "Notification", actor
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
