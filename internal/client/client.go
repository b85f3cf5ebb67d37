// Package client talks to the FriendConnect REST API and can fall back to a
// local mirror of the same contract when the server is unreachable.
package client

import (
	"context"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/service"
)

// Backend is the session-scoped contract shared by the REST client and the
// local mirror. Every method except Register and Login acts as the user of
// the current session and fails with domain.ErrMissingToken without one.
type Backend interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Logout(ctx context.Context) error

	Profile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, upd service.ProfileUpdate) (*domain.User, error)
	ListUsers(ctx context.Context, filter service.UserFilter) ([]domain.User, error)

	Friends(ctx context.Context) ([]domain.User, error)
	SendFriendRequest(ctx context.Context, targetID int64) (*domain.FriendRequest, error)
	ResolveFriendRequest(ctx context.Context, requestID int64, action string) error
	PendingRequests(ctx context.Context) ([]service.PendingRequest, error)

	Conversations(ctx context.Context) ([]service.ConversationSummary, error)
	StartConversation(ctx context.Context, targetID int64) (*domain.Conversation, bool, error)
	Messages(ctx context.Context, conversationID int64) ([]domain.Message, error)
	SendMessage(ctx context.Context, conversationID int64, text string) (*domain.Message, error)
}
