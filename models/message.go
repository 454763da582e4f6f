package models

import "time"

// Conversation is keyed by its unordered participant pair
type Conversation struct {
	ID           string    `json:"_id"`
	Participants []string  `json:"participants"`
	Messages     []string  `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasParticipants reports whether the conversation is between a and b in either order
func (c *Conversation) HasParticipants(a, b string) bool {
	if len(c.Participants) != 2 {
		return false
	}
	p, q := c.Participants[0], c.Participants[1]
	return (p == a && q == b) || (p == b && q == a)
}

type Message struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Body           string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}
