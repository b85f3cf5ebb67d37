package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/friendconnect/internal/domain"
)

// Actions accepted by ResolveRequest.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// PendingRequest is a pending friend request together with its sender.
type PendingRequest struct {
	Request  domain.FriendRequest
	FromUser *domain.User
}

// FriendService manages friend requests and the friend sets they produce.
type FriendService struct {
	users    domain.UserRepository
	requests domain.FriendRequestRepository
}

// NewFriendService creates a new FriendService.
func NewFriendService(users domain.UserRepository, requests domain.FriendRequestRepository) *FriendService {
	return &FriendService{users: users, requests: requests}
}

// SendRequest records a pending request from fromID to toID.
func (s *FriendService) SendRequest(ctx context.Context, fromID, toID int64) (*domain.FriendRequest, error) {
	if toID == 0 {
		return nil, fmt.Errorf("%w: target user ID is required", domain.ErrInvalidInput)
	}
	if toID == fromID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", domain.ErrInvalidInput)
	}

	if _, err := s.users.GetByID(ctx, toID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("target user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get target user: %w", err)
	}

	sender, err := s.users.GetByID(ctx, fromID)
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	if sender.HasFriend(toID) {
		return nil, domain.ErrAlreadyFriends
	}

	req := &domain.FriendRequest{FromUserID: fromID, ToUserID: toID}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, domain.ErrDuplicateRequest) {
			return nil, err
		}
		return nil, fmt.Errorf("create friend request: %w", err)
	}
	return req, nil
}

// ResolveRequest accepts or rejects a pending request addressed to
// requesterID. Accepting adds each user to the other's friend set.
func (s *FriendService) ResolveRequest(ctx context.Context, requestID, requesterID int64, action string) (*domain.FriendRequest, error) {
	var status domain.FriendRequestStatus
	switch action {
	case ActionAccept:
		status = domain.FriendRequestAccepted
	case ActionReject:
		status = domain.FriendRequestRejected
	default:
		// An unaddressable request reports not found before a bad action.
		if err := s.checkAddressable(ctx, requestID, requesterID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: invalid action %q", domain.ErrInvalidInput, action)
	}

	req, err := s.requests.Resolve(ctx, requestID, requesterID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("friend request: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("resolve friend request: %w", err)
	}

	if status == domain.FriendRequestAccepted {
		if err := s.users.AddFriend(ctx, req.FromUserID, req.ToUserID); err != nil {
			return nil, fmt.Errorf("add friend to sender: %w", err)
		}
		if err := s.users.AddFriend(ctx, req.ToUserID, req.FromUserID); err != nil {
			return nil, fmt.Errorf("add friend to recipient: %w", err)
		}
	}
	return req, nil
}

// ListPending returns the pending requests addressed to userID along with
// each sender's profile.
func (s *FriendService) ListPending(ctx context.Context, userID int64) ([]PendingRequest, error) {
	reqs, err := s.requests.ListPendingTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	out := make([]PendingRequest, 0, len(reqs))
	for _, req := range reqs {
		from, err := s.users.GetByID(ctx, req.FromUserID)
		if err != nil {
			return nil, fmt.Errorf("get sender %d: %w", req.FromUserID, err)
		}
		out = append(out, PendingRequest{Request: req, FromUser: from})
	}
	return out, nil
}

// ListFriends returns the profiles of userID's friends in the order the
// friendships were made.
func (s *FriendService) ListFriends(ctx context.Context, userID int64) ([]domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]domain.User, 0, len(user.Friends))
	for _, id := range user.Friends {
		f, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get friend %d: %w", id, err)
		}
		friends = append(friends, *f)
	}
	return friends, nil
}

func (s *FriendService) checkAddressable(ctx context.Context, requestID, requesterID int64) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("friend request: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("get friend request: %w", err)
	}
	if req.ToUserID != requesterID || req.Status != domain.FriendRequestPending {
		return fmt.Errorf("friend request: %w", domain.ErrNotFound)
	}
	return nil
}
