package service_test

import (
	"context"
	"testing"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/repository/memory"
	"github.com/msomdec/friendconnect/internal/service"
)

type testStack struct {
	db            *memory.DB
	auth          *service.AuthService
	users         *service.UserService
	friends       *service.FriendService
	conversations *service.ConversationService
	broker        *service.Broker
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := memory.New()
	broker := service.NewBroker()
	return &testStack{
		db:            db,
		auth:          service.NewAuthService(db.Users(), testJWTSecret, 4),
		users:         service.NewUserService(db.Users()),
		friends:       service.NewFriendService(db.Users(), db.FriendRequests()),
		conversations: service.NewConversationService(db.Conversations(), db.Users(), broker),
		broker:        broker,
	}
}

func (s *testStack) register(t *testing.T, name, email string, age int, location string) *domain.User {
	t.Helper()
	u, _, err := s.auth.Register(context.Background(), service.RegisterInput{
		Name:     name,
		Email:    email,
		Password: "secret1",
		Age:      age,
		Location: location,
	})
	if err != nil {
		t.Fatalf("Register %s: %v", email, err)
	}
	return u
}
