package memory

import (
	"context"
	"sync"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
)

// FriendRequestRepository implements domain.FriendRequestRepository. Pending
// requests are additionally indexed by their ordered (from, to) pair.
type FriendRequestRepository struct {
	mu      sync.RWMutex
	lastID  int64
	byID    map[int64]*domain.FriendRequest
	pending map[[2]int64]int64
}

// NewFriendRequestRepository creates an empty FriendRequestRepository.
func NewFriendRequestRepository() *FriendRequestRepository {
	return &FriendRequestRepository{
		byID:    make(map[int64]*domain.FriendRequest),
		pending: make(map[[2]int64]int64),
	}
}

func (r *FriendRequestRepository) Create(ctx context.Context, req *domain.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := [2]int64{req.FromUserID, req.ToUserID}
	if _, ok := r.pending[key]; ok {
		return domain.ErrDuplicateRequest
	}

	now := time.Now().UTC()
	r.lastID++
	req.ID = r.lastID
	req.Status = domain.FriendRequestPending
	req.CreatedAt = now
	req.UpdatedAt = now

	stored := *req
	r.byID[req.ID] = &stored
	r.pending[key] = req.ID
	return nil
}

func (r *FriendRequestRepository) GetByID(ctx context.Context, id int64) (*domain.FriendRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *req
	return &out, nil
}

// ListPendingTo returns pending requests addressed to userID, oldest first.
func (r *FriendRequestRepository) ListPendingTo(ctx context.Context, userID int64) ([]domain.FriendRequest, error) {
	var out []domain.FriendRequest
	for _, req := range r.all() {
		if req.ToUserID == userID && req.Status == domain.FriendRequestPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *FriendRequestRepository) Resolve(ctx context.Context, id, toUserID int64, status domain.FriendRequestStatus) (*domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok || req.ToUserID != toUserID || req.Status != domain.FriendRequestPending {
		return nil, domain.ErrNotFound
	}

	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	delete(r.pending, [2]int64{req.FromUserID, req.ToUserID})

	out := *req
	return &out, nil
}

func (r *FriendRequestRepository) all() []domain.FriendRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.FriendRequest, 0, len(r.byID))
	for id := int64(1); id <= r.lastID; id++ {
		if req, ok := r.byID[id]; ok {
			out = append(out, *req)
		}
	}
	return out
}

func (r *FriendRequestRepository) load(reqs []domain.FriendRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID = 0
	r.byID = make(map[int64]*domain.FriendRequest, len(reqs))
	r.pending = make(map[[2]int64]int64)
	for _, req := range reqs {
		stored := req
		r.byID[stored.ID] = &stored
		if stored.Status == domain.FriendRequestPending {
			r.pending[[2]int64{stored.FromUserID, stored.ToUserID}] = stored.ID
		}
		r.lastID = max(r.lastID, stored.ID)
	}
}
