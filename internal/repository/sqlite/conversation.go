package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
)

// ConversationRepository implements domain.ConversationRepository using SQLite.
// Participants are stored as (user_low, user_high) under a unique constraint.
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new SQLite-backed ConversationRepository.
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db.SqlDB}
}

func (r *ConversationRepository) FindOrCreate(ctx context.Context, a, b int64) (*domain.Conversation, bool, error) {
	pair := domain.ParticipantPair(a, b)
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (user_low, user_high, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_low, user_high) DO NOTHING`,
		pair[0], pair[1], time.Now().UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert conversation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert conversation rows affected: %w", err)
	}

	conv := &domain.Conversation{}
	err = r.db.QueryRowContext(ctx,
		`SELECT id, user_low, user_high, created_at FROM conversations
		 WHERE user_low = ? AND user_high = ?`, pair[0], pair[1],
	).Scan(&conv.ID, &conv.Participants[0], &conv.Participants[1], &conv.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("query conversation by pair: %w", err)
	}

	if conv.Messages, err = r.messages(ctx, conv.ID); err != nil {
		return nil, false, err
	}
	return conv, n == 1, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	conv := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_low, user_high, created_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.Participants[0], &conv.Participants[1], &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	if conv.Messages, err = r.messages(ctx, conv.ID); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListByUser returns the user's conversations ordered by ID.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_low, user_high, created_at FROM conversations
		 WHERE user_low = ? OR user_high = ? ORDER BY id`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	var convs []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.Participants[0], &c.Participants[1], &c.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	// Release the only connection before loading messages.
	rows.Close()

	for i := range convs {
		if convs[i].Messages, err = r.messages(ctx, convs[i].ID); err != nil {
			return nil, err
		}
	}
	return convs, nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, conversationID int64, msg *domain.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, text, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, msg.SenderID, msg.Text, msg.Timestamp,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get message id: %w", err)
	}
	msg.ID = id
	msg.ConversationID = conversationID
	return nil
}

func (r *ConversationRepository) messages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, text, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
