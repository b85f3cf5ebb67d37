package memory

import (
	"context"
	"sync"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
)

// UserRepository implements domain.UserRepository with an ID index and an
// email index.
type UserRepository struct {
	mu      sync.RWMutex
	lastID  int64
	byID    map[int64]*domain.User
	byEmail map[string]int64
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	r.lastID++
	user.ID = r.lastID
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = cloneUser(user)
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrNotFound
	}

	stored.Name = user.Name
	stored.Bio = user.Bio
	stored.Interests = append([]string(nil), user.Interests...)
	stored.Avatar = user.Avatar
	stored.UpdatedAt = time.Now().UTC()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

// List returns every user ordered by ID.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.all(), nil
}

func (r *UserRepository) AddFriend(ctx context.Context, userID, friendID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if u.HasFriend(friendID) {
		return nil
	}
	u.Friends = append(u.Friends, friendID)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) all() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.byID))
	for id := int64(1); id <= r.lastID; id++ {
		if u, ok := r.byID[id]; ok {
			users = append(users, *cloneUser(u))
		}
	}
	return users
}

func (r *UserRepository) load(users []domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID = 0
	r.byID = make(map[int64]*domain.User, len(users))
	r.byEmail = make(map[string]int64, len(users))
	for i := range users {
		u := cloneUser(&users[i])
		r.byID[u.ID] = u
		r.byEmail[u.Email] = u.ID
		r.lastID = max(r.lastID, u.ID)
	}
}
