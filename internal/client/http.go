package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/service"
)

const defaultTimeout = 10 * time.Second

// HTTPClient is a Backend that calls the REST API. It keeps the bearer token
// returned by Register or Login for later calls.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Backend = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the server at baseURL. A nil hc uses a
// client with a 10s timeout.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Token returns the current bearer token, or "".
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type authWire struct {
	User  userWire `json:"user"`
	Token string   `json:"token"`
}

func (c *HTTPClient) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	var resp authWire
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]any{
		"name":     in.Name,
		"email":    in.Email,
		"password": in.Password,
		"age":      in.Age,
		"location": in.Location,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.setToken(resp.Token)
	return resp.User.toDomain(), nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var resp authWire
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.setToken(resp.Token)
	return resp.User.toDomain(), nil
}

// Logout forgets the token. Tokens are stateless so the server is not called.
func (c *HTTPClient) Logout(ctx context.Context) error {
	c.setToken("")
	return nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*domain.User, error) {
	var u userWire
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &u); err != nil {
		return nil, err
	}
	return u.toDomain(), nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd service.ProfileUpdate) (*domain.User, error) {
	var resp struct {
		User userWire `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", profileUpdateBody(upd), &resp); err != nil {
		return nil, err
	}
	return resp.User.toDomain(), nil
}

func (c *HTTPClient) ListUsers(ctx context.Context, filter service.UserFilter) ([]domain.User, error) {
	q := url.Values{}
	if filter.Age != "" {
		q.Set("age", filter.Age)
	}
	if filter.Location != "" {
		q.Set("location", filter.Location)
	}
	if filter.Interest != "" {
		q.Set("interest", filter.Interest)
	}
	path := "/api/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var users []userWire
	if err := c.do(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, err
	}
	return usersToDomain(users), nil
}

func (c *HTTPClient) Friends(ctx context.Context) ([]domain.User, error) {
	var users []userWire
	if err := c.do(ctx, http.MethodGet, "/api/friends", nil, &users); err != nil {
		return nil, err
	}
	return usersToDomain(users), nil
}

func (c *HTTPClient) SendFriendRequest(ctx context.Context, targetID int64) (*domain.FriendRequest, error) {
	var resp struct {
		Request friendRequestWire `json:"request"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/friends/request", map[string]int64{"targetUserId": targetID}, &resp); err != nil {
		return nil, err
	}
	return resp.Request.toDomain(), nil
}

func (c *HTTPClient) ResolveFriendRequest(ctx context.Context, requestID int64, action string) error {
	path := "/api/friends/request/" + strconv.FormatInt(requestID, 10)
	return c.do(ctx, http.MethodPut, path, map[string]string{"action": action}, nil)
}

func (c *HTTPClient) PendingRequests(ctx context.Context) ([]service.PendingRequest, error) {
	var reqs []friendRequestWire
	if err := c.do(ctx, http.MethodGet, "/api/friends/requests", nil, &reqs); err != nil {
		return nil, err
	}
	out := make([]service.PendingRequest, len(reqs))
	for i, r := range reqs {
		out[i].Request = *r.toDomain()
		if r.FromUser != nil {
			out[i].FromUser = r.FromUser.toDomain()
		}
	}
	return out, nil
}

func (c *HTTPClient) Conversations(ctx context.Context) ([]service.ConversationSummary, error) {
	var convs []conversationWire
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &convs); err != nil {
		return nil, err
	}
	out := make([]service.ConversationSummary, len(convs))
	for i, conv := range convs {
		out[i] = conv.toSummary()
	}
	return out, nil
}

func (c *HTTPClient) StartConversation(ctx context.Context, targetID int64) (*domain.Conversation, bool, error) {
	var resp struct {
		Conversation conversationWire `json:"conversation"`
	}
	status, err := c.doStatus(ctx, http.MethodPost, "/api/conversations", map[string]int64{"targetUserId": targetID}, &resp)
	if err != nil {
		return nil, false, err
	}
	return resp.Conversation.toDomain(), status == http.StatusCreated, nil
}

func (c *HTTPClient) Messages(ctx context.Context, conversationID int64) ([]domain.Message, error) {
	var msgs []messageWire
	if err := c.do(ctx, http.MethodGet, messagesPath(conversationID), nil, &msgs); err != nil {
		return nil, err
	}
	return messagesToDomain(msgs), nil
}

func (c *HTTPClient) SendMessage(ctx context.Context, conversationID int64, text string) (*domain.Message, error) {
	var resp struct {
		MessageData messageWire `json:"messageData"`
	}
	if err := c.do(ctx, http.MethodPost, messagesPath(conversationID), map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}
	m := resp.MessageData.toDomain()
	return &m, nil
}

func messagesPath(conversationID int64) string {
	return "/api/conversations/" + strconv.FormatInt(conversationID, 10) + "/messages"
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	_, err := c.doStatus(ctx, method, path, body, out)
	return err
}

// doStatus sends the request and decodes a 2xx body into out. Non-2xx
// answers become *APIError; transport failures are returned wrapped.
func (c *HTTPClient) doStatus(ctx context.Context, method, path string, body, out any) (int, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
