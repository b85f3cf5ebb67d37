// Package memory implements the domain repositories on top of indexed
// in-process maps. Each repository guards its own state with a mutex, and
// every compound check-then-write runs inside a single critical section.
package memory

import (
	"context"
	"slices"

	"github.com/msomdec/friendconnect/internal/domain"
)

// DB bundles the in-memory repositories. It lives for the lifetime of the
// process; nothing is persisted unless the caller takes a Snapshot.
type DB struct {
	users         *UserRepository
	requests      *FriendRequestRepository
	conversations *ConversationRepository
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:         NewUserRepository(),
		requests:      NewFriendRequestRepository(),
		conversations: NewConversationRepository(),
	}
}

// Migrate is a no-op; the in-memory store has no schema.
func (db *DB) Migrate(ctx context.Context) error { return nil }

// Close is a no-op kept to satisfy domain.Database.
func (db *DB) Close() error { return nil }

func (db *DB) Users() domain.UserRepository                   { return db.users }
func (db *DB) FriendRequests() domain.FriendRequestRepository { return db.requests }
func (db *DB) Conversations() domain.ConversationRepository   { return db.conversations }

// Snapshot is a point-in-time copy of every record, suitable for JSON encoding.
type Snapshot struct {
	Users          []domain.User          `json:"users"`
	FriendRequests []domain.FriendRequest `json:"friendRequests"`
	Conversations  []domain.Conversation  `json:"conversations"`
}

// Snapshot copies the current contents of all repositories.
func (db *DB) Snapshot() Snapshot {
	return Snapshot{
		Users:          db.users.all(),
		FriendRequests: db.requests.all(),
		Conversations:  db.conversations.all(),
	}
}

// Restore replaces the contents of all repositories with snap.
// ID sequences continue from the highest restored ID.
func (db *DB) Restore(snap Snapshot) {
	db.users.load(snap.Users)
	db.requests.load(snap.FriendRequests)
	db.conversations.load(snap.Conversations)
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Interests = slices.Clone(u.Interests)
	c.Friends = slices.Clone(u.Friends)
	return &c
}

func cloneConversation(c *domain.Conversation) *domain.Conversation {
	out := *c
	out.Messages = slices.Clone(c.Messages)
	return &out
}
