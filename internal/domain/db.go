package domain

import "context"

// Database defines lifecycle operations for the underlying store and hands
// out its repositories. Each implementation (memory, SQLite) owns its own
// schema strategy, so the whole backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error

	Users() UserRepository
	FriendRequests() FriendRequestRepository
	Conversations() ConversationRepository
}
