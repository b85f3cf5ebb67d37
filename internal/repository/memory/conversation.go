package memory

import (
	"context"
	"sync"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
)

// ConversationRepository implements domain.ConversationRepository with an
// ID index and a participant-pair index.
type ConversationRepository struct {
	mu            sync.RWMutex
	lastID        int64
	lastMessageID int64
	byID          map[int64]*domain.Conversation
	byPair        map[[2]int64]int64
}

// NewConversationRepository creates an empty ConversationRepository.
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		byID:   make(map[int64]*domain.Conversation),
		byPair: make(map[[2]int64]int64),
	}
}

func (r *ConversationRepository) FindOrCreate(ctx context.Context, a, b int64) (*domain.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pair := domain.ParticipantPair(a, b)
	if id, ok := r.byPair[pair]; ok {
		return cloneConversation(r.byID[id]), false, nil
	}

	r.lastID++
	conv := &domain.Conversation{
		ID:           r.lastID,
		Participants: pair,
		Messages:     []domain.Message{},
		CreatedAt:    time.Now().UTC(),
	}
	r.byID[conv.ID] = conv
	r.byPair[pair] = conv.ID
	return cloneConversation(conv), true, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneConversation(conv), nil
}

// ListByUser returns the user's conversations ordered by ID.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, conv := range r.all() {
		if conv.HasParticipant(userID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, conversationID int64, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.byID[conversationID]
	if !ok {
		return domain.ErrNotFound
	}

	r.lastMessageID++
	msg.ID = r.lastMessageID
	msg.ConversationID = conversationID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	conv.Messages = append(conv.Messages, *msg)
	return nil
}

func (r *ConversationRepository) all() []domain.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Conversation, 0, len(r.byID))
	for id := int64(1); id <= r.lastID; id++ {
		if conv, ok := r.byID[id]; ok {
			out = append(out, *cloneConversation(conv))
		}
	}
	return out
}

func (r *ConversationRepository) load(convs []domain.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID = 0
	r.lastMessageID = 0
	r.byID = make(map[int64]*domain.Conversation, len(convs))
	r.byPair = make(map[[2]int64]int64, len(convs))
	for i := range convs {
		conv := cloneConversation(&convs[i])
		conv.Participants = domain.ParticipantPair(conv.Participants[0], conv.Participants[1])
		r.byID[conv.ID] = conv
		r.byPair[conv.Participants] = conv.ID
		r.lastID = max(r.lastID, conv.ID)
		for _, m := range conv.Messages {
			r.lastMessageID = max(r.lastMessageID, m.ID)
		}
	}
}
