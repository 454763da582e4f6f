package services

import (
	"context"
	"strings"

	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/models"
	"masterboxer.com/project-instaclone/notify"
	"masterboxer.com/project-instaclone/store"
)

type MessageService struct {
	store  store.Store
	events notify.Sink
}

func NewMessageService(s store.Store, events notify.Sink) *MessageService {
	return &MessageService{store: s, events: events}
}

// Send appends a message to the conversation between sender and receiver,
// creating the conversation on first contact.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.Validation("Message is required")
	}
	if senderID == receiverID {
		return nil, apperrors.Validation("You cannot message yourself.")
	}

	if _, err := s.store.GetUser(ctx, receiverID); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("User does not exist.")
		}
		return nil, err
	}

	msg := &models.Message{SenderID: senderID, ReceiverID: receiverID, Body: body}
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		conv, err := tx.FindConversation(ctx, senderID, receiverID)
		if apperrors.Is(err, apperrors.KindNotFound) {
			conv = &models.Conversation{Participants: []string{senderID, receiverID}}
			err = tx.CreateConversation(ctx, conv)
		}
		if err != nil {
			return err
		}

		msg.ConversationID = conv.ID
		return tx.AppendMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, notify.Event{
		Type:        notify.EventMessage,
		RecipientID: receiverID,
		ActorID:     senderID,
		Body:        body,
		Payload:     msg,
	})
	return msg, nil
}

// Messages returns the conversation between the two users oldest first.
// Users who never talked get an empty list.
func (s *MessageService) Messages(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	conv, err := s.store.FindConversation(ctx, userID, otherID)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conv.ID)
}
