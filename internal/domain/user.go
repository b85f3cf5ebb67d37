package domain

import (
	"context"
	"slices"
	"time"
)

const (
	MinAge = 18
	MaxAge = 100

	MinPasswordLength = 6

	DefaultBio = "Tell us about yourself..."
)

// User represents a registered member. Friends holds the IDs of other users
// in the order the friendships were made; it never contains duplicates.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Age          int
	Location     string
	Bio          string
	Interests    []string
	Friends      []int64
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasFriend reports whether id is in the user's friend set.
func (u *User) HasFriend(id int64) bool {
	return slices.Contains(u.Friends, id)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update persists the mutable profile fields: name, bio, interests, avatar.
	Update(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
	// AddFriend appends friendID to the user's friend set unless it is
	// already present.
	AddFriend(ctx context.Context, userID, friendID int64) error
}
