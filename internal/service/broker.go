package service

import (
	"log/slog"
	"sync"

	"github.com/msomdec/friendconnect/internal/domain"
)

const subscriberBuffer = 16

// Broker fans newly appended messages out to per-conversation subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the message.
type Broker struct {
	mu   sync.Mutex
	subs map[int64]map[chan domain.Message]struct{}
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int64]map[chan domain.Message]struct{})}
}

// Subscribe registers interest in a conversation. The cancel func removes
// the subscription and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(conversationID int64) (<-chan domain.Message, func()) {
	ch := make(chan domain.Message, subscriberBuffer)

	b.mu.Lock()
	if b.subs[conversationID] == nil {
		b.subs[conversationID] = make(map[chan domain.Message]struct{})
	}
	b.subs[conversationID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[conversationID], ch)
			if len(b.subs[conversationID]) == 0 {
				delete(b.subs, conversationID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers msg to every subscriber of its conversation.
func (b *Broker) Publish(msg domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[msg.ConversationID] {
		select {
		case ch <- msg:
		default:
			slog.Warn("dropping message for slow subscriber", "conversation_id", msg.ConversationID, "message_id", msg.ID)
		}
	}
}

// Subscribers returns the number of active subscriptions for a conversation.
func (b *Broker) Subscribers(conversationID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[conversationID])
}
