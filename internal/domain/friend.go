package domain

import (
	"context"
	"time"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed request from one user to another.
// Pending is the only non-terminal status.
type FriendRequest struct {
	ID         int64
	FromUserID int64
	ToUserID   int64
	Status     FriendRequestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FriendRequestRepository persists friend requests.
type FriendRequestRepository interface {
	// Create stores a new pending request. It returns ErrDuplicateRequest if a
	// pending request for the same (from, to) pair already exists.
	Create(ctx context.Context, req *FriendRequest) error
	GetByID(ctx context.Context, id int64) (*FriendRequest, error)
	ListPendingTo(ctx context.Context, userID int64) ([]FriendRequest, error)
	// Resolve moves a pending request addressed to toUserID into status.
	// Requests that are missing, addressed to someone else or already
	// resolved yield ErrNotFound.
	Resolve(ctx context.Context, id, toUserID int64, status FriendRequestStatus) (*FriendRequest, error)
}
