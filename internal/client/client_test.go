package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msomdec/friendconnect/internal/client"
	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/handler"
	"github.com/msomdec/friendconnect/internal/mirror"
	"github.com/msomdec/friendconnect/internal/repository/memory"
	"github.com/msomdec/friendconnect/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "client-test-secret-0123456789abcdef"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := memory.New()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux,
		service.NewAuthService(db.Users(), testJWTSecret, 4),
		service.NewUserService(db.Users()),
		service.NewFriendService(db.Users(), db.FriendRequests()),
		service.NewConversationService(db.Conversations(), db.Users(), service.NewBroker()),
		nil,
	)

	srv := httptest.NewServer(handler.Wrap(mux))
	t.Cleanup(srv.Close)
	return srv
}

func registerInput(name, email string) service.RegisterInput {
	return service.RegisterInput{Name: name, Email: email, Password: "secret1", Age: 30, Location: "Austin"}
}

func TestHTTPClient_FullFlow(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	ann := client.NewHTTPClient(srv.URL, nil)
	bob := client.NewHTTPClient(srv.URL+"/", nil)

	annUser, err := ann.Register(ctx, registerInput("Ann", "ann@x.io"))
	require.NoError(t, err)
	assert.NotEmpty(t, ann.Token())

	bobUser, err := bob.Register(ctx, registerInput("Bob", "bob@x.io"))
	require.NoError(t, err)

	bio := "Chess and coffee"
	updated, err := ann.UpdateProfile(ctx, service.ProfileUpdate{Bio: &bio, Interests: []string{"chess"}})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)

	users, err := bob.ListUsers(ctx, service.UserFilter{Interest: "CHESS"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, annUser.ID, users[0].ID)

	req, err := ann.SendFriendRequest(ctx, bobUser.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FriendRequestPending, req.Status)

	_, err = ann.SendFriendRequest(ctx, bobUser.ID)
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	pending, err := bob.PendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Ann", pending[0].FromUser.Name)

	require.NoError(t, bob.ResolveFriendRequest(ctx, req.ID, service.ActionAccept))
	err = bob.ResolveFriendRequest(ctx, req.ID, service.ActionAccept)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	friends, err := ann.Friends(ctx)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, bobUser.ID, friends[0].ID)

	conv, created, err := ann.StartConversation(ctx, bobUser.ID)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := bob.StartConversation(ctx, annUser.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)

	_, err = ann.SendMessage(ctx, conv.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	msg, err := ann.SendMessage(ctx, conv.ID, "hi Bob")
	require.NoError(t, err)
	assert.Equal(t, annUser.ID, msg.SenderID)

	msgs, err := bob.Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi Bob", msgs[0].Text)

	convs, err := bob.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, annUser.ID, convs[0].OtherUser.ID)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "hi Bob", convs[0].LastMessage.Text)
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := client.NewHTTPClient(srv.URL, nil)

	_, err := c.Profile(ctx)
	assert.ErrorIs(t, err, domain.ErrMissingToken)

	_, err = c.Register(ctx, registerInput("Sam", "sam@x.io"))
	require.NoError(t, err)

	_, err = c.Register(ctx, registerInput("Sam", "sam@x.io"))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = c.Login(ctx, "sam@x.io", "nope123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	_, err = c.Messages(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound, "a failed login keeps the previous session")
}

func TestIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := client.NewHTTPClient(url, &http.Client{Timeout: time.Second})
	_, err := c.Login(context.Background(), "a@b.c", "secret1")
	require.Error(t, err)
	assert.True(t, client.IsUnreachable(err))

	assert.False(t, client.IsUnreachable(nil))
	assert.False(t, client.IsUnreachable(&client.APIError{Status: 404}))
	assert.False(t, client.IsUnreachable(domain.ErrNotFound))
}

func TestFallback_SwitchesToMirrorWhenServerIsDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	local, err := mirror.Open(context.Background(), mirror.Options{ReplyDelay: -1, BcryptCost: 4})
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	fb := client.NewFallback(client.NewHTTPClient(url, &http.Client{Timeout: time.Second}), local)
	ctx := context.Background()

	assert.False(t, fb.Offline())
	user, err := fb.Register(ctx, registerInput("Sam", "sam@x.io"))
	require.NoError(t, err)
	assert.True(t, fb.Offline())
	assert.Equal(t, int64(1), user.ID)

	profile, err := fb.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sam", profile.Name)

	require.NoError(t, fb.Logout(ctx))
	_, err = fb.Profile(ctx)
	assert.ErrorIs(t, err, domain.ErrMissingToken)
	assert.ErrorIs(t, err, client.ErrOffline)
}

func TestFallback_SessionDoesNotFollowSwitch(t *testing.T) {
	srv := newServer(t)

	local, err := mirror.Open(context.Background(), mirror.Options{ReplyDelay: -1, BcryptCost: 4})
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	fb := client.NewFallback(client.NewHTTPClient(srv.URL, &http.Client{Timeout: time.Second}), local)
	ctx := context.Background()

	_, err = fb.Register(ctx, registerInput("Sam", "sam@x.io"))
	require.NoError(t, err)
	assert.False(t, fb.Offline())

	srv.Close()

	_, err = fb.Profile(ctx)
	require.Error(t, err)
	assert.True(t, fb.Offline())
	assert.ErrorIs(t, err, client.ErrOffline)
	assert.ErrorIs(t, err, domain.ErrMissingToken)

	_, err = fb.Register(ctx, registerInput("Sam", "sam@x.io"))
	require.NoError(t, err)

	profile, err := fb.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sam", profile.Name)
}

func TestFallback_PassesThroughServerErrors(t *testing.T) {
	srv := newServer(t)

	local, err := mirror.Open(context.Background(), mirror.Options{ReplyDelay: -1, BcryptCost: 4})
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	fb := client.NewFallback(client.NewHTTPClient(srv.URL, nil), local)
	ctx := context.Background()

	_, err = fb.Login(ctx, "nobody@x.io", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.False(t, fb.Offline(), "an answered request must not switch to the mirror")

	_, err = fb.Register(ctx, registerInput("Sam", "sam@x.io"))
	require.NoError(t, err)
	assert.Zero(t, local.CurrentUserID())
}
