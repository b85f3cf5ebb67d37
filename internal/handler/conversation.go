package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/friendconnect/internal/service"
	"github.com/starfederation/datastar-go/datastar"
)

const msgConversationNotFound = "Conversation not found"

// ConversationHandler serves direct-messaging endpoints.
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// HandleListConversations lists the caller's conversations with the other
// participant and the latest message.
// GET /api/conversations
func (h *ConversationHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.conversations.ListFor(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, msgConversationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toConversationSummaryDTOs(summaries))
}

// HandleCreateConversation finds or creates the conversation with a user.
// POST /api/conversations
// Request:  {"targetUserId":2}
// Response: 201 when created, 200 when it already existed.
func (h *ConversationHandler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetUserID int64 `json:"targetUserId"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	conv, created, err := h.conversations.FindOrCreate(r.Context(), UserIDFromContext(r.Context()), req.TargetUserID)
	if err != nil {
		writeServiceError(w, r, err, "Target user not found")
		return
	}

	status, message := http.StatusOK, "Conversation already exists"
	if created {
		status, message = http.StatusCreated, "Conversation created successfully"
	}
	writeJSON(w, status, map[string]any{
		"message":      message,
		"conversation": toConversationDTO(conv),
	})
}

// HandleGetMessages returns a conversation's messages in order.
// GET /api/conversations/{id}/messages
func (h *ConversationHandler) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, msgConversationNotFound)
		return
	}

	msgs, err := h.conversations.GetMessages(r.Context(), id, UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, msgConversationNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTOs(msgs))
}

// HandleSendMessage appends a message from the caller.
// POST /api/conversations/{id}/messages
// Request:  {"text":"..."}
// Response: 201 {"message":"...","messageData":{...}}
func (h *ConversationHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	// Blank text is reported before the conversation is looked up.
	id, _ := pathID(r, "id")
	msg, err := h.conversations.AppendMessage(r.Context(), id, UserIDFromContext(r.Context()), req.Text)
	if err != nil {
		writeServiceError(w, r, err, msgConversationNotFound)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Message sent successfully",
		"messageData": toMessageDTO(msg),
	})
}

// HandleStream streams the conversation over server-sent events. The first
// event patches the full message history into the "messages" signal; each
// later event patches one new message into the "message" signal.
// GET /api/conversations/{id}/stream
func (h *ConversationHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, msgConversationNotFound)
		return
	}
	callerID := UserIDFromContext(r.Context())

	ch, cancel, err := h.conversations.Subscribe(r.Context(), id, callerID)
	if err != nil {
		writeServiceError(w, r, err, msgConversationNotFound)
		return
	}
	defer cancel()

	history, err := h.conversations.GetMessages(r.Context(), id, callerID)
	if err != nil {
		writeServiceError(w, r, err, msgConversationNotFound)
		return
	}

	// A message appended between Subscribe and GetMessages arrives on both.
	var lastID int64
	if n := len(history); n > 0 {
		lastID = history[n-1].ID
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(map[string]any{"messages": toMessageDTOs(history)}); err != nil {
		slog.DebugContext(r.Context(), "stream closed", "conversation_id", id, "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			if msg.ID <= lastID {
				continue
			}
			if err := sse.MarshalAndPatchSignals(map[string]any{"message": toMessageDTO(&msg)}); err != nil {
				slog.DebugContext(r.Context(), "stream closed", "conversation_id", id, "error", err)
				return
			}
		}
	}
}
