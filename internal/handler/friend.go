package handler

import (
	"net/http"

	"github.com/msomdec/friendconnect/internal/service"
)

const msgRequestNotFound = "Friend request not found"

// FriendHandler serves the friend-request endpoints.
type FriendHandler struct {
	friends *service.FriendService
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(friends *service.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

// HandleSendRequest sends a friend request to another user.
// POST /api/friends/request
// Request:  {"targetUserId":2}
// Response: 201 {"message":"...","request":{...}}
func (h *FriendHandler) HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetUserID int64 `json:"targetUserId"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	fr, err := h.friends.SendRequest(r.Context(), UserIDFromContext(r.Context()), req.TargetUserID)
	if err != nil {
		writeServiceError(w, r, err, "Target user not found")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Friend request sent successfully",
		"request": toFriendRequestDTO(fr),
	})
}

// HandleResolveRequest accepts or rejects a pending request addressed to
// the caller.
// PUT /api/friends/request/{id}
// Request:  {"action":"accept"|"reject"}
func (h *FriendHandler) HandleResolveRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, msgRequestNotFound)
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	if _, err := h.friends.ResolveRequest(r.Context(), id, UserIDFromContext(r.Context()), req.Action); err != nil {
		writeServiceError(w, r, err, msgRequestNotFound)
		return
	}

	message := "Friend request rejected"
	if req.Action == service.ActionAccept {
		message = "Friend request accepted"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleListRequests lists pending requests addressed to the caller, each
// with the sender's profile.
// GET /api/friends/requests
func (h *FriendHandler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	pending, err := h.friends.ListPending(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, msgRequestNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPendingRequestDTOs(pending))
}

// HandleListFriends lists the caller's friends.
// GET /api/friends
func (h *FriendHandler) HandleListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.friends.ListFriends(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(friends))
}
