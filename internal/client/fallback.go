package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync/atomic"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/service"
)

// ErrOffline is returned with domain.ErrMissingToken when a call reaches the
// local backend without a session there. The server session does not carry
// over, so the caller has to register or log in again.
var ErrOffline = errors.New("offline: sign in to the local backend")

// Fallback is a Backend that uses primary until a call fails to reach it,
// then switches to local for the rest of its life. API errors returned by a
// reachable server are passed through unchanged.
type Fallback struct {
	primary Backend
	local   Backend
	offline atomic.Bool
}

var _ Backend = (*Fallback)(nil)

// NewFallback creates a Fallback over primary and local.
func NewFallback(primary, local Backend) *Fallback {
	return &Fallback{primary: primary, local: local}
}

// Offline reports whether the fallback has switched to the local backend.
func (f *Fallback) Offline() bool {
	return f.offline.Load()
}

// IsUnreachable reports whether err means the server could not be reached,
// as opposed to the server answering with an error.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

func call[T any](ctx context.Context, f *Fallback, fn func(Backend) (T, error)) (T, error) {
	if !f.offline.Load() {
		v, err := fn(f.primary)
		if !IsUnreachable(err) {
			return v, err
		}
		if f.offline.CompareAndSwap(false, true) {
			slog.WarnContext(ctx, "server unreachable, switching to local mirror", "error", err)
		}
	}
	v, err := fn(f.local)
	if errors.Is(err, domain.ErrMissingToken) {
		return v, fmt.Errorf("%w: %w", ErrOffline, err)
	}
	return v, err
}

func (f *Fallback) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	return call(ctx, f, func(b Backend) (*domain.User, error) { return b.Register(ctx, in) })
}

func (f *Fallback) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return call(ctx, f, func(b Backend) (*domain.User, error) { return b.Login(ctx, email, password) })
}

// Logout ends the session on both backends.
func (f *Fallback) Logout(ctx context.Context) error {
	return errors.Join(f.primary.Logout(ctx), f.local.Logout(ctx))
}

func (f *Fallback) Profile(ctx context.Context) (*domain.User, error) {
	return call(ctx, f, func(b Backend) (*domain.User, error) { return b.Profile(ctx) })
}

func (f *Fallback) UpdateProfile(ctx context.Context, upd service.ProfileUpdate) (*domain.User, error) {
	return call(ctx, f, func(b Backend) (*domain.User, error) { return b.UpdateProfile(ctx, upd) })
}

func (f *Fallback) ListUsers(ctx context.Context, filter service.UserFilter) ([]domain.User, error) {
	return call(ctx, f, func(b Backend) ([]domain.User, error) { return b.ListUsers(ctx, filter) })
}

func (f *Fallback) Friends(ctx context.Context) ([]domain.User, error) {
	return call(ctx, f, func(b Backend) ([]domain.User, error) { return b.Friends(ctx) })
}

func (f *Fallback) SendFriendRequest(ctx context.Context, targetID int64) (*domain.FriendRequest, error) {
	return call(ctx, f, func(b Backend) (*domain.FriendRequest, error) { return b.SendFriendRequest(ctx, targetID) })
}

func (f *Fallback) ResolveFriendRequest(ctx context.Context, requestID int64, action string) error {
	_, err := call(ctx, f, func(b Backend) (struct{}, error) {
		return struct{}{}, b.ResolveFriendRequest(ctx, requestID, action)
	})
	return err
}

func (f *Fallback) PendingRequests(ctx context.Context) ([]service.PendingRequest, error) {
	return call(ctx, f, func(b Backend) ([]service.PendingRequest, error) { return b.PendingRequests(ctx) })
}

func (f *Fallback) Conversations(ctx context.Context) ([]service.ConversationSummary, error) {
	return call(ctx, f, func(b Backend) ([]service.ConversationSummary, error) { return b.Conversations(ctx) })
}

type startResult struct {
	conv    *domain.Conversation
	created bool
}

func (f *Fallback) StartConversation(ctx context.Context, targetID int64) (*domain.Conversation, bool, error) {
	res, err := call(ctx, f, func(b Backend) (startResult, error) {
		conv, created, err := b.StartConversation(ctx, targetID)
		return startResult{conv, created}, err
	})
	return res.conv, res.created, err
}

func (f *Fallback) Messages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	return call(ctx, f, func(b Backend) ([]domain.Message, error) { return b.Messages(ctx, conversationID) })
}

func (f *Fallback) SendMessage(ctx context.Context, conversationID int64, text string) (*domain.Message, error) {
	return call(ctx, f, func(b Backend) (*domain.Message, error) { return b.SendMessage(ctx, conversationID, text) })
}
