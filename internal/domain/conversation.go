package domain

import (
	"context"
	"time"
)

// Conversation is a direct-message thread between exactly two users.
// Participants is stored with the lower user ID first.
type Conversation struct {
	ID           int64
	Participants [2]int64
	Messages     []Message
	CreatedAt    time.Time
}

// Message is a single immutable entry in a conversation.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Text           string
	Timestamp      time.Time
}

// ParticipantPair orders two user IDs so that the same unordered pair always
// produces the same key.
func ParticipantPair(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID int64) int64 {
	if c.Participants[0] == userID {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// LastMessage returns the most recent message, or nil for an empty thread.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	m := c.Messages[len(c.Messages)-1]
	return &m
}

// ConversationRepository persists conversations and their messages.
type ConversationRepository interface {
	// FindOrCreate returns the conversation for the unordered pair (a, b),
	// creating an empty one if none exists. created reports which happened.
	FindOrCreate(ctx context.Context, a, b int64) (conv *Conversation, created bool, err error)
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	ListByUser(ctx context.Context, userID int64) ([]Conversation, error)
	// AppendMessage stores msg at the end of the conversation and fills in
	// its ID and ConversationID.
	AppendMessage(ctx context.Context, conversationID int64, msg *Message) error
}
