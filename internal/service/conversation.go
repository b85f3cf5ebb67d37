package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
)

// ConversationSummary is a conversation as seen by one participant.
type ConversationSummary struct {
	Conversation domain.Conversation
	OtherUser    *domain.User
	LastMessage  *domain.Message
}

// ConversationService manages direct-message threads.
type ConversationService struct {
	conversations domain.ConversationRepository
	users         domain.UserRepository
	broker        *Broker
}

// NewConversationService creates a new ConversationService. broker may be
// nil, in which case appended messages are not published.
func NewConversationService(conversations domain.ConversationRepository, users domain.UserRepository, broker *Broker) *ConversationService {
	return &ConversationService{conversations: conversations, users: users, broker: broker}
}

// FindOrCreate returns the conversation between userID and targetID,
// creating it on first contact. created reports whether it is new.
func (s *ConversationService) FindOrCreate(ctx context.Context, userID, targetID int64) (*domain.Conversation, bool, error) {
	if targetID == 0 {
		return nil, false, fmt.Errorf("%w: target user ID is required", domain.ErrInvalidInput)
	}
	if targetID == userID {
		return nil, false, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrInvalidInput)
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, fmt.Errorf("target user: %w", domain.ErrNotFound)
		}
		return nil, false, fmt.Errorf("get target user: %w", err)
	}

	conv, created, err := s.conversations.FindOrCreate(ctx, userID, targetID)
	if err != nil {
		return nil, false, fmt.Errorf("find or create conversation: %w", err)
	}
	return conv, created, nil
}

// ListFor returns every conversation userID takes part in, annotated with
// the other participant and the latest message.
func (s *ConversationService) ListFor(ctx context.Context, userID int64) ([]ConversationSummary, error) {
	convs, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		other, err := s.users.GetByID(ctx, c.OtherParticipant(userID))
		if err != nil {
			return nil, fmt.Errorf("get participant: %w", err)
		}
		out = append(out, ConversationSummary{
			Conversation: c,
			OtherUser:    other,
			LastMessage:  c.LastMessage(),
		})
	}
	return out, nil
}

// GetMessages returns the ordered messages of a conversation callerID takes
// part in.
func (s *ConversationService) GetMessages(ctx context.Context, conversationID, callerID int64) ([]domain.Message, error) {
	conv, err := s.participantConversation(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}
	return conv.Messages, nil
}

// AppendMessage adds a message from callerID to the conversation.
func (s *ConversationService) AppendMessage(ctx context.Context, conversationID, callerID int64, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", domain.ErrInvalidInput)
	}

	if _, err := s.participantConversation(ctx, conversationID, callerID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		SenderID:  callerID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.conversations.AppendMessage(ctx, conversationID, msg); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("conversation: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("append message: %w", err)
	}

	if s.broker != nil {
		s.broker.Publish(*msg)
	}
	return msg, nil
}

// Subscribe streams messages appended to the conversation after the call.
// The returned cancel func must be called to release the subscription.
func (s *ConversationService) Subscribe(ctx context.Context, conversationID, callerID int64) (<-chan domain.Message, func(), error) {
	if s.broker == nil {
		return nil, nil, errors.New("message streaming is not enabled")
	}
	if _, err := s.participantConversation(ctx, conversationID, callerID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.broker.Subscribe(conversationID)
	return ch, cancel, nil
}

func (s *ConversationService) participantConversation(ctx context.Context, conversationID, callerID int64) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("conversation: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	// Non-participants get the same answer as for a missing conversation.
	if !conv.HasParticipant(callerID) {
		return nil, fmt.Errorf("conversation: %w", domain.ErrNotFound)
	}
	return conv, nil
}
