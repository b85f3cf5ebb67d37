package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
)

// FriendRequestRepository implements domain.FriendRequestRepository using SQLite.
// A partial unique index over pending rows enforces one pending request per
// ordered pair.
type FriendRequestRepository struct {
	db *sql.DB
}

// NewFriendRequestRepository creates a new SQLite-backed FriendRequestRepository.
func NewFriendRequestRepository(db *DB) *FriendRequestRepository {
	return &FriendRequestRepository{db: db.SqlDB}
}

func (r *FriendRequestRepository) Create(ctx context.Context, req *domain.FriendRequest) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO friend_requests (from_user_id, to_user_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		req.FromUserID, req.ToUserID, domain.FriendRequestPending, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateRequest
		}
		return fmt.Errorf("insert friend request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get friend request id: %w", err)
	}

	req.ID = id
	req.Status = domain.FriendRequestPending
	req.CreatedAt = now
	req.UpdatedAt = now
	return nil
}

func (r *FriendRequestRepository) GetByID(ctx context.Context, id int64) (*domain.FriendRequest, error) {
	req := &domain.FriendRequest{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		 FROM friend_requests WHERE id = ?`, id,
	).Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query friend request: %w", err)
	}
	return req, nil
}

func (r *FriendRequestRepository) ListPendingTo(ctx context.Context, userID int64) ([]domain.FriendRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		 FROM friend_requests WHERE to_user_id = ? AND status = ? ORDER BY id`,
		userID, domain.FriendRequestPending)
	if err != nil {
		return nil, fmt.Errorf("list pending friend requests: %w", err)
	}
	defer rows.Close()

	var reqs []domain.FriendRequest
	for rows.Next() {
		var req domain.FriendRequest
		if err := rows.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *FriendRequestRepository) Resolve(ctx context.Context, id, toUserID int64, status domain.FriendRequestStatus) (*domain.FriendRequest, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE friend_requests SET status = ?, updated_at = ?
		 WHERE id = ? AND to_user_id = ? AND status = ?`,
		status, time.Now().UTC(), id, toUserID, domain.FriendRequestPending,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve friend request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolve friend request rows affected: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}
