package handler

import (
	"net/http"

	"github.com/msomdec/friendconnect/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. authLimiter
// throttles login and registration per client IP; nil disables it.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	users *service.UserService,
	friends *service.FriendService,
	conversations *service.ConversationService,
	authLimiter *service.TokenBucket,
) {
	authHandler := NewAuthHandler(auth)
	userHandler := NewUserHandler(users)
	friendHandler := NewFriendHandler(friends)
	convHandler := NewConversationHandler(conversations)

	limited := func(h http.HandlerFunc) http.Handler { return RateLimit(authLimiter, h) }
	protected := func(h http.HandlerFunc) http.Handler { return RequireAuth(auth, h) }

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.Handle("POST /api/auth/register", limited(authHandler.HandleRegister))
	mux.Handle("POST /api/auth/login", limited(authHandler.HandleLogin))

	mux.Handle("GET /api/users/profile", protected(userHandler.HandleGetProfile))
	mux.Handle("PUT /api/users/profile", protected(userHandler.HandleUpdateProfile))
	mux.Handle("GET /api/users", protected(userHandler.HandleListUsers))

	mux.Handle("GET /api/friends", protected(friendHandler.HandleListFriends))
	mux.Handle("POST /api/friends/request", protected(friendHandler.HandleSendRequest))
	mux.Handle("PUT /api/friends/request/{id}", protected(friendHandler.HandleResolveRequest))
	mux.Handle("GET /api/friends/requests", protected(friendHandler.HandleListRequests))

	mux.Handle("GET /api/conversations", protected(convHandler.HandleListConversations))
	mux.Handle("POST /api/conversations", protected(convHandler.HandleCreateConversation))
	mux.Handle("GET /api/conversations/{id}/messages", protected(convHandler.HandleGetMessages))
	mux.Handle("POST /api/conversations/{id}/messages", protected(convHandler.HandleSendMessage))
	mux.Handle("GET /api/conversations/{id}/stream", protected(convHandler.HandleStream))

	mux.HandleFunc("/", HandleNotFound)
}

// Wrap applies the standard middleware chain around the mux.
func Wrap(h http.Handler) http.Handler {
	return RequestID(Logging(Recover(SecurityHeaders(h))))
}
