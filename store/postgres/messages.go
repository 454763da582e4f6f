package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/models"
)

func (s *Store) FindConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	var (
		c    models.Conversation
		p, q string
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT c.id, c.participant_a, c.participant_b, c.created_at,
			ARRAY(SELECT m.id FROM messages m WHERE m.conversation_id = c.id ORDER BY m.seq)
		FROM conversations c
		WHERE LEAST(c.participant_a, c.participant_b) = LEAST($1::text, $2::text)
			AND GREATEST(c.participant_a, c.participant_b) = GREATEST($1::text, $2::text)`,
		a, b).Scan(&c.ID, &p, &q, &c.CreatedAt, pq.Array(&c.Messages))
	if err != nil {
		return nil, mapError(err, "Conversation not found")
	}
	c.Participants = []string{p, q}
	c.Messages = nonNil(c.Messages)
	return &c, nil
}

// CreateConversation inserts the pair or, when another writer won the race
// on the pair index, loads the existing row into c.
func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation) error {
	if len(c.Participants) != 2 {
		return apperrors.Validation("A conversation needs exactly two participants")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}

	var id string
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO conversations (id, participant_a, participant_b, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ((LEAST(participant_a, participant_b)), (GREATEST(participant_a, participant_b))) DO NOTHING
		RETURNING id`,
		c.ID, c.Participants[0], c.Participants[1], c.CreatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		existing, findErr := s.FindConversation(ctx, c.Participants[0], c.Participants[1])
		if findErr != nil {
			return findErr
		}
		*c = *existing
		return nil
	}
	if err != nil {
		return mapError(err, "User does not exist.")
	}

	c.Messages = []string{}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, m.SenderID, m.ReceiverID, m.Body, m.CreatedAt)
	return mapError(err, "Conversation not found")
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id, body, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq`, conversationID)
	if err != nil {
		return nil, mapError(err, "Conversation not found")
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Body, &m.CreatedAt); err != nil {
			return nil, mapError(err, "Conversation not found")
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "Conversation not found")
	}
	return messages, nil
}
