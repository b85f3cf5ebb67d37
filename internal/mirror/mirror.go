// Package mirror is a self-contained local copy of the FriendConnect
// contract. It runs the same services over an in-memory store, keeps the
// signed-in user as session state, and persists everything to a JSON file
// the way the browser client keeps its data in local storage.
package mirror

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/msomdec/friendconnect/internal/client"
	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/repository/memory"
	"github.com/msomdec/friendconnect/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// AutoReplyText is what the other participant answers in the mirror.
const AutoReplyText = "Thanks for the message! I'll get back to you soon."

// DefaultReplyDelay is used when Options.ReplyDelay is zero.
const DefaultReplyDelay = 2 * time.Second

// Options configures a Mirror.
type Options struct {
	// Path is the JSON file backing the mirror. Empty keeps it in memory only.
	Path string
	// ReplyDelay is how long after a sent message the auto-reply arrives.
	// Zero means DefaultReplyDelay; negative disables auto-replies.
	ReplyDelay time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// SeedDemo loads the demo accounts into an empty mirror.
	SeedDemo bool
}

// state is the on-disk layout.
type state struct {
	Data          memory.Snapshot `json:"data"`
	CurrentUserID int64           `json:"currentUser,omitempty"`
}

// Mirror implements client.Backend against local state.
type Mirror struct {
	db            *memory.DB
	auth          *service.AuthService
	users         *service.UserService
	friends       *service.FriendService
	conversations *service.ConversationService

	path       string
	replyDelay time.Duration

	mu        sync.Mutex
	currentID int64
	timers    map[*time.Timer]struct{}
	closed    bool
	pending   sync.WaitGroup

	saveMu sync.Mutex
}

var _ client.Backend = (*Mirror)(nil)

// Open loads the mirror from opts.Path, or starts empty if the file does
// not exist yet.
func Open(ctx context.Context, opts Options) (*Mirror, error) {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	delay := opts.ReplyDelay
	if delay == 0 {
		delay = DefaultReplyDelay
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}

	db := memory.New()
	m := &Mirror{
		db:            db,
		auth:          service.NewAuthService(db.Users(), hex.EncodeToString(secret), cost),
		users:         service.NewUserService(db.Users()),
		friends:       service.NewFriendService(db.Users(), db.FriendRequests()),
		conversations: service.NewConversationService(db.Conversations(), db.Users(), nil),
		path:          opts.Path,
		replyDelay:    delay,
		timers:        make(map[*time.Timer]struct{}),
	}

	if err := m.load(); err != nil {
		return nil, err
	}
	if opts.SeedDemo {
		if err := service.SeedDemoData(ctx, db, cost); err != nil {
			return nil, fmt.Errorf("seed mirror: %w", err)
		}
		if err := m.save(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Mirror) load() error {
	if m.path == "" {
		return nil
	}
	b, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read mirror file: %w", err)
	}

	var st state
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("decode mirror file: %w", err)
	}
	m.db.Restore(st.Data)
	m.currentID = st.CurrentUserID
	return nil
}

// save writes the whole state to a temp file and renames it into place.
func (m *Mirror) save() error {
	if m.path == "" {
		return nil
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	st := state{Data: m.db.Snapshot(), CurrentUserID: m.currentID}
	m.mu.Unlock()

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mirror state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".mirror-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write mirror file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close mirror file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("replace mirror file: %w", err)
	}
	return nil
}

// Close cancels pending auto-replies, waits for any that already started,
// and writes the final state.
func (m *Mirror) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for t := range m.timers {
		if t.Stop() {
			m.pending.Done()
		}
	}
	m.timers = nil
	m.mu.Unlock()

	m.pending.Wait()
	return m.save()
}

// CurrentUserID returns the signed-in user's ID, or 0.
func (m *Mirror) CurrentUserID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentID
}

func (m *Mirror) session() (int64, error) {
	id := m.CurrentUserID()
	if id == 0 {
		return 0, domain.ErrMissingToken
	}
	return id, nil
}

func (m *Mirror) setSession(id int64) error {
	m.mu.Lock()
	m.currentID = id
	m.mu.Unlock()
	return m.save()
}

func (m *Mirror) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	user, _, err := m.auth.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := m.setSession(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (m *Mirror) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, _, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.setSession(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (m *Mirror) Logout(ctx context.Context) error {
	return m.setSession(0)
}

func (m *Mirror) Profile(ctx context.Context) (*domain.User, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	return m.users.Profile(ctx, id)
}

func (m *Mirror) UpdateProfile(ctx context.Context, upd service.ProfileUpdate) (*domain.User, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	user, err := m.users.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	return user, m.save()
}

func (m *Mirror) ListUsers(ctx context.Context, filter service.UserFilter) ([]domain.User, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	return m.users.List(ctx, id, filter)
}

func (m *Mirror) Friends(ctx context.Context) ([]domain.User, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	return m.friends.ListFriends(ctx, id)
}

func (m *Mirror) SendFriendRequest(ctx context.Context, targetID int64) (*domain.FriendRequest, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	req, err := m.friends.SendRequest(ctx, id, targetID)
	if err != nil {
		return nil, err
	}
	return req, m.save()
}

func (m *Mirror) ResolveFriendRequest(ctx context.Context, requestID int64, action string) error {
	id, err := m.session()
	if err != nil {
		return err
	}
	if _, err := m.friends.ResolveRequest(ctx, requestID, id, action); err != nil {
		return err
	}
	return m.save()
}

func (m *Mirror) PendingRequests(ctx context.Context) ([]service.PendingRequest, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	return m.friends.ListPending(ctx, id)
}

func (m *Mirror) Conversations(ctx context.Context) ([]service.ConversationSummary, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	return m.conversations.ListFor(ctx, id)
}

func (m *Mirror) StartConversation(ctx context.Context, targetID int64) (*domain.Conversation, bool, error) {
	id, err := m.session()
	if err != nil {
		return nil, false, err
	}
	conv, created, err := m.conversations.FindOrCreate(ctx, id, targetID)
	if err != nil {
		return nil, false, err
	}
	if created {
		if err := m.save(); err != nil {
			return nil, false, err
		}
	}
	return conv, created, nil
}

func (m *Mirror) Messages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	return m.conversations.GetMessages(ctx, conversationID, id)
}

// SendMessage appends the message and schedules the other participant's
// auto-reply.
func (m *Mirror) SendMessage(ctx context.Context, conversationID int64, text string) (*domain.Message, error) {
	id, err := m.session()
	if err != nil {
		return nil, err
	}
	msg, err := m.conversations.AppendMessage(ctx, conversationID, id, text)
	if err != nil {
		return nil, err
	}

	conv, err := m.db.Conversations().GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	m.scheduleReply(conversationID, conv.OtherParticipant(id))

	return msg, m.save()
}

func (m *Mirror) scheduleReply(conversationID, fromID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.replyDelay < 0 {
		return
	}

	m.pending.Add(1)
	// The callback takes m.mu first, so t is assigned before it runs.
	var t *time.Timer
	t = time.AfterFunc(m.replyDelay, func() {
		defer m.pending.Done()

		m.mu.Lock()
		delete(m.timers, t)
		m.mu.Unlock()

		m.deliverReply(conversationID, fromID)
	})
	m.timers[t] = struct{}{}
}

func (m *Mirror) deliverReply(conversationID, fromID int64) {
	ctx := context.Background()
	if _, err := m.conversations.AppendMessage(ctx, conversationID, fromID, AutoReplyText); err != nil {
		slog.Warn("mirror auto-reply failed", "conversation_id", conversationID, "error", err)
		return
	}
	if err := m.save(); err != nil {
		slog.Warn("mirror save failed", "error", err)
	}
}
