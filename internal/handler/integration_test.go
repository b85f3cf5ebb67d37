package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
	"github.com/msomdec/friendconnect/internal/handler"
	"github.com/msomdec/friendconnect/internal/service"
)

type apiClient struct {
	t      *testing.T
	url    string
	broker *service.Broker
}

func newTestServer(t *testing.T) *apiClient {
	t.Helper()
	svc := newTestServices(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, svc.auth, svc.users, svc.friends, svc.conversations, nil)

	srv := httptest.NewServer(handler.Wrap(mux))
	t.Cleanup(srv.Close)
	return &apiClient{t: t, url: srv.URL, broker: svc.broker}
}

// do sends a JSON request and decodes the response body into out when out
// is non-nil. It returns the status code.
func (c *apiClient) do(method, path, token string, body, out any) int {
	c.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.url+path, r)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type authResponse struct {
	Message string         `json:"message"`
	User    map[string]any `json:"user"`
	Token   string         `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *apiClient) register(name, email string, age int) (int64, string) {
	c.t.Helper()
	var resp authResponse
	status := c.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "secret1",
		"age":      age,
		"location": "Austin",
	}, &resp)
	if status != http.StatusCreated {
		c.t.Fatalf("register %s: expected 201, got %d", email, status)
	}
	return int64(resp.User["id"].(float64)), resp.Token
}

func TestIntegration_RegisterLoginList(t *testing.T) {
	c := newTestServer(t)

	var reg authResponse
	status := c.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Sam",
		"email":    "sam@x.io",
		"password": "secret1",
		"age":      30,
		"location": "Austin",
	}, &reg)
	if status != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", status)
	}
	if reg.User["id"].(float64) != 1 {
		t.Fatalf("expected id 1, got %v", reg.User["id"])
	}
	if _, ok := reg.User["password"]; ok {
		t.Fatal("user payload must not contain a password")
	}
	if _, ok := reg.User["passwordHash"]; ok {
		t.Fatal("user payload must not contain a password hash")
	}
	if reg.Token == "" {
		t.Fatal("expected a token")
	}

	var login authResponse
	if status := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "sam@x.io",
		"password": "secret1",
	}, &login); status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", status)
	}
	if login.Message != "Login successful" || login.Token == "" {
		t.Fatalf("unexpected login response %+v", login)
	}

	var users []map[string]any
	if status := c.do(http.MethodGet, "/api/users", login.Token, nil, &users); status != http.StatusOK {
		t.Fatalf("list users: expected 200, got %d", status)
	}
	if users == nil || len(users) != 0 {
		t.Fatalf("expected an empty array, got %v", users)
	}
}

func TestIntegration_RegisterValidation(t *testing.T) {
	c := newTestServer(t)
	c.register("Sam", "sam@x.io", 30)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "duplicate email",
			body: map[string]any{"name": "Sam", "email": "SAM@x.io", "password": "secret1", "age": 30, "location": "Austin"},
			want: "User already exists",
		},
		{
			name: "under age",
			body: map[string]any{"name": "Kid", "email": "kid@x.io", "password": "secret1", "age": 17, "location": "Austin"},
			want: "Age must be between 18 and 100",
		},
		{
			name: "short password",
			body: map[string]any{"name": "Pat", "email": "pat@x.io", "password": "abc", "age": 30, "location": "Austin"},
			want: "Password must be at least 6 characters",
		},
		{
			name: "missing fields",
			body: map[string]any{"email": "x@x.io"},
			want: "All fields are required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var resp errorResponse
			if status := c.do(http.MethodPost, "/api/auth/register", "", tc.body, &resp); status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", status)
			}
			if resp.Error != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, resp.Error)
			}
		})
	}
}

func TestIntegration_LoginFailuresAreIdentical(t *testing.T) {
	c := newTestServer(t)
	c.register("Sam", "sam@x.io", 30)

	var wrongPassword, unknownEmail errorResponse
	s1 := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sam@x.io", "password": "nope123"}, &wrongPassword)
	s2 := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "who@x.io", "password": "secret1"}, &unknownEmail)

	if s1 != http.StatusUnauthorized || s2 != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", s1, s2)
	}
	if wrongPassword != unknownEmail {
		t.Fatalf("responses differ: %+v vs %+v", wrongPassword, unknownEmail)
	}

	var missing errorResponse
	if status := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sam@x.io"}, &missing); status != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", status)
	}
}

func TestIntegration_Profile(t *testing.T) {
	c := newTestServer(t)
	_, token := c.register("Sam", "sam@x.io", 30)

	var profile map[string]any
	if status := c.do(http.MethodGet, "/api/users/profile", token, nil, &profile); status != http.StatusOK {
		t.Fatalf("get profile: expected 200, got %d", status)
	}
	if profile["bio"] != "Tell us about yourself..." {
		t.Fatalf("expected default bio, got %v", profile["bio"])
	}

	var updated struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}
	status := c.do(http.MethodPut, "/api/users/profile", token, map[string]any{
		"bio":       "Runner",
		"interests": []string{"running", "chess", "running"},
		"name":      "",
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d", status)
	}
	if updated.User["bio"] != "Runner" || updated.User["name"] != "Sam" {
		t.Fatalf("unexpected updated user %v", updated.User)
	}
	if interests := updated.User["interests"].([]any); len(interests) != 2 {
		t.Fatalf("expected 2 interests, got %v", interests)
	}

	if status := c.do(http.MethodGet, "/api/users/profile", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", status)
	}
	if status := c.do(http.MethodGet, "/api/users/profile", "garbage", nil, nil); status != http.StatusForbidden {
		t.Fatalf("bad token: expected 403, got %d", status)
	}
}

func TestIntegration_ListUsersFilters(t *testing.T) {
	c := newTestServer(t)
	_, token := c.register("Sam", "sam@x.io", 30)
	c.register("Ann", "ann@x.io", 22)
	c.register("Bob", "bob@x.io", 45)

	var users []map[string]any
	if status := c.do(http.MethodGet, "/api/users?age=20-30", token, nil, &users); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(users) != 1 || users[0]["name"] != "Ann" {
		t.Fatalf("expected [Ann], got %v", users)
	}

	var resp errorResponse
	if status := c.do(http.MethodGet, "/api/users?age=old", token, nil, &resp); status != http.StatusBadRequest {
		t.Fatalf("malformed age: expected 400, got %d", status)
	}
}

func TestIntegration_FriendRequestFlow(t *testing.T) {
	c := newTestServer(t)
	annID, annToken := c.register("Ann", "ann@x.io", 25)
	bobID, bobToken := c.register("Bob", "bob@x.io", 27)

	var sent struct {
		Message string         `json:"message"`
		Request map[string]any `json:"request"`
	}
	if status := c.do(http.MethodPost, "/api/friends/request", annToken, map[string]int64{"targetUserId": bobID}, &sent); status != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", status)
	}
	if sent.Request["status"] != "pending" {
		t.Fatalf("expected pending request, got %v", sent.Request)
	}
	requestID := int64(sent.Request["id"].(float64))

	var dup errorResponse
	if status := c.do(http.MethodPost, "/api/friends/request", annToken, map[string]int64{"targetUserId": bobID}, &dup); status != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", status)
	}
	if dup.Error != "Friend request already sent" {
		t.Fatalf("unexpected duplicate error %q", dup.Error)
	}

	if status := c.do(http.MethodPost, "/api/friends/request", annToken, map[string]int64{"targetUserId": 99}, nil); status != http.StatusNotFound {
		t.Fatalf("unknown target: expected 404, got %d", status)
	}
	if status := c.do(http.MethodPost, "/api/friends/request", annToken, map[string]int64{}, nil); status != http.StatusBadRequest {
		t.Fatalf("missing target: expected 400, got %d", status)
	}

	var pending []map[string]any
	if status := c.do(http.MethodGet, "/api/friends/requests", bobToken, nil, &pending); status != http.StatusOK {
		t.Fatalf("list requests: expected 200, got %d", status)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}
	if from := pending[0]["fromUser"].(map[string]any); from["name"] != "Ann" {
		t.Fatalf("expected sender Ann, got %v", from)
	}

	path := "/api/friends/request/" + strconv.FormatInt(requestID, 10)

	// Only the recipient may resolve the request.
	if status := c.do(http.MethodPut, path, annToken, map[string]string{"action": "accept"}, nil); status != http.StatusNotFound {
		t.Fatalf("sender resolve: expected 404, got %d", status)
	}
	var bad errorResponse
	if status := c.do(http.MethodPut, path, bobToken, map[string]string{"action": "maybe"}, &bad); status != http.StatusBadRequest {
		t.Fatalf("bad action: expected 400, got %d", status)
	}

	var accepted map[string]string
	if status := c.do(http.MethodPut, path, bobToken, map[string]string{"action": "accept"}, &accepted); status != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", status)
	}
	if accepted["message"] != "Friend request accepted" {
		t.Fatalf("unexpected message %q", accepted["message"])
	}

	if status := c.do(http.MethodPut, path, bobToken, map[string]string{"action": "reject"}, nil); status != http.StatusNotFound {
		t.Fatalf("resolve twice: expected 404, got %d", status)
	}

	var annFriends, bobFriends []map[string]any
	c.do(http.MethodGet, "/api/friends", annToken, nil, &annFriends)
	c.do(http.MethodGet, "/api/friends", bobToken, nil, &bobFriends)
	if len(annFriends) != 1 || int64(annFriends[0]["id"].(float64)) != bobID {
		t.Fatalf("Ann's friends: %v", annFriends)
	}
	if len(bobFriends) != 1 || int64(bobFriends[0]["id"].(float64)) != annID {
		t.Fatalf("Bob's friends: %v", bobFriends)
	}

	var already errorResponse
	if status := c.do(http.MethodPost, "/api/friends/request", bobToken, map[string]int64{"targetUserId": annID}, &already); status != http.StatusBadRequest {
		t.Fatalf("already friends: expected 400, got %d", status)
	}
	if already.Error != "Already friends" {
		t.Fatalf("unexpected error %q", already.Error)
	}
}

func TestIntegration_ConversationFlow(t *testing.T) {
	c := newTestServer(t)
	annID, annToken := c.register("Ann", "ann@x.io", 25)
	bobID, bobToken := c.register("Bob", "bob@x.io", 27)
	_, eveToken := c.register("Eve", "eve@x.io", 29)

	type convResponse struct {
		Message      string         `json:"message"`
		Conversation map[string]any `json:"conversation"`
	}

	var created convResponse
	if status := c.do(http.MethodPost, "/api/conversations", annToken, map[string]int64{"targetUserId": bobID}, &created); status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}
	convID := int64(created.Conversation["id"].(float64))

	var existing convResponse
	if status := c.do(http.MethodPost, "/api/conversations", bobToken, map[string]int64{"targetUserId": annID}, &existing); status != http.StatusOK {
		t.Fatalf("find existing: expected 200, got %d", status)
	}
	if int64(existing.Conversation["id"].(float64)) != convID {
		t.Fatalf("expected the same conversation, got %v", existing.Conversation["id"])
	}

	msgPath := "/api/conversations/" + strconv.FormatInt(convID, 10) + "/messages"

	var blank errorResponse
	if status := c.do(http.MethodPost, msgPath, annToken, map[string]string{"text": "   "}, &blank); status != http.StatusBadRequest {
		t.Fatalf("blank message: expected 400, got %d", status)
	}
	if blank.Error != "Message text is required" {
		t.Fatalf("unexpected error %q", blank.Error)
	}

	var sent struct {
		Message     string         `json:"message"`
		MessageData map[string]any `json:"messageData"`
	}
	if status := c.do(http.MethodPost, msgPath, annToken, map[string]string{"text": " hi Bob "}, &sent); status != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", status)
	}
	if sent.MessageData["text"] != "hi Bob" || int64(sent.MessageData["senderId"].(float64)) != annID {
		t.Fatalf("unexpected message %v", sent.MessageData)
	}

	if status := c.do(http.MethodPost, msgPath, eveToken, map[string]string{"text": "hello?"}, nil); status != http.StatusNotFound {
		t.Fatalf("non-participant send: expected 404, got %d", status)
	}
	if status := c.do(http.MethodGet, msgPath, eveToken, nil, nil); status != http.StatusNotFound {
		t.Fatalf("non-participant read: expected 404, got %d", status)
	}

	var msgs []map[string]any
	if status := c.do(http.MethodGet, msgPath, bobToken, nil, &msgs); status != http.StatusOK {
		t.Fatalf("read: expected 200, got %d", status)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(msgs))
	}

	var convs []map[string]any
	if status := c.do(http.MethodGet, "/api/conversations", bobToken, nil, &convs); status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	if other := convs[0]["otherUser"].(map[string]any); other["name"] != "Ann" {
		t.Fatalf("expected other user Ann, got %v", other)
	}
	if last := convs[0]["lastMessage"].(map[string]any); last["text"] != "hi Bob" {
		t.Fatalf("unexpected last message %v", last)
	}

	var eveConvs []map[string]any
	c.do(http.MethodGet, "/api/conversations", eveToken, nil, &eveConvs)
	if eveConvs == nil || len(eveConvs) != 0 {
		t.Fatalf("expected an empty array for Eve, got %v", eveConvs)
	}
}

func TestIntegration_MessageStream(t *testing.T) {
	c := newTestServer(t)
	_, annToken := c.register("Ann", "ann@x.io", 25)
	bobID, bobToken := c.register("Bob", "bob@x.io", 27)

	var created struct {
		Conversation map[string]any `json:"conversation"`
	}
	c.do(http.MethodPost, "/api/conversations", annToken, map[string]int64{"targetUserId": bobID}, &created)
	base := "/api/conversations/" + strconv.FormatInt(int64(created.Conversation["id"].(float64)), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+base+"/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+bobToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected an event stream, got %q", ct)
	}

	if status := c.do(http.MethodPost, base+"/messages", annToken, map[string]string{"text": "live hello"}, nil); status != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "live hello") {
			return
		}
	}
	t.Fatalf("stream ended without the new message: %v", scanner.Err())
}

func TestIntegration_MessageStreamSkipsHistory(t *testing.T) {
	c := newTestServer(t)
	annID, annToken := c.register("Ann", "ann@x.io", 25)
	bobID, bobToken := c.register("Bob", "bob@x.io", 27)

	var created struct {
		Conversation map[string]any `json:"conversation"`
	}
	c.do(http.MethodPost, "/api/conversations", annToken, map[string]int64{"targetUserId": bobID}, &created)
	convID := int64(created.Conversation["id"].(float64))
	base := "/api/conversations/" + strconv.FormatInt(convID, 10)

	var sent struct {
		MessageData map[string]any `json:"messageData"`
	}
	if status := c.do(http.MethodPost, base+"/messages", annToken, map[string]string{"text": "before"}, &sent); status != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", status)
	}
	historyID := int64(sent.MessageData["id"].(float64))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+base+"/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+bobToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	// Deliver a message the history patch already carried, as if it had
	// been appended between subscribing and reading the history.
	c.broker.Publish(domain.Message{ID: historyID, ConversationID: convID, SenderID: annID, Text: "duplicate"})

	if status := c.do(http.MethodPost, base+"/messages", annToken, map[string]string{"text": "after"}, nil); status != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "duplicate") {
			t.Fatalf("stream repeated a history message: %s", line)
		}
		if strings.Contains(line, "after") {
			return
		}
	}
	t.Fatalf("stream ended without the new message: %v", scanner.Err())
}

func TestIntegration_StreamRequiresParticipant(t *testing.T) {
	c := newTestServer(t)
	_, annToken := c.register("Ann", "ann@x.io", 25)
	bobID, _ := c.register("Bob", "bob@x.io", 27)
	_, eveToken := c.register("Eve", "eve@x.io", 29)

	var created struct {
		Conversation map[string]any `json:"conversation"`
	}
	c.do(http.MethodPost, "/api/conversations", annToken, map[string]int64{"targetUserId": bobID}, &created)
	path := "/api/conversations/" + strconv.FormatInt(int64(created.Conversation["id"].(float64)), 10) + "/stream"

	if status := c.do(http.MethodGet, path, eveToken, nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}
