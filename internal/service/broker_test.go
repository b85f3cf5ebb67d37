package service_test

import (
	"testing"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/service"
)

func TestBroker_DeliversOnlyToMatchingConversation(t *testing.T) {
	b := service.NewBroker()

	one, cancelOne := b.Subscribe(1)
	defer cancelOne()
	two, cancelTwo := b.Subscribe(2)
	defer cancelTwo()

	b.Publish(domain.Message{ID: 10, ConversationID: 1, Text: "for one"})

	select {
	case m := <-one:
		if m.ID != 10 {
			t.Fatalf("expected message 10, got %d", m.ID)
		}
	default:
		t.Fatal("subscriber of conversation 1 got nothing")
	}

	select {
	case m := <-two:
		t.Fatalf("subscriber of conversation 2 got %+v", m)
	default:
	}
}

func TestBroker_CancelClosesAndUnregisters(t *testing.T) {
	b := service.NewBroker()

	ch, cancel := b.Subscribe(5)
	if n := b.Subscribers(5); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if n := b.Subscribers(5); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}

	// Publishing after cancel must not panic on the closed channel.
	b.Publish(domain.Message{ConversationID: 5})
}

func TestBroker_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := service.NewBroker()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	for i := range 100 {
		b.Publish(domain.Message{ID: int64(i + 1), ConversationID: 1})
	}

	first := <-ch
	if first.ID != 1 {
		t.Fatalf("expected the first message to be kept, got %d", first.ID)
	}
}
