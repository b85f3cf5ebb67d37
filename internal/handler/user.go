package handler

import (
	"net/http"

	"github.com/msomdec/friendconnect/internal/service"
)

// UserHandler serves profile and discovery endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleGetProfile returns the caller's profile.
// GET /api/users/profile
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleUpdateProfile applies a partial profile update.
// PUT /api/users/profile
// Request:  {"name"?:"...","bio"?:"...","interests"?:[...],"avatar"?:"..."}
// Response: {"message":"...","user":{...}}
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      *string  `json:"name"`
		Bio       *string  `json:"bio"`
		Interests []string `json:"interests"`
		Avatar    *string  `json:"avatar"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), UserIDFromContext(r.Context()), service.ProfileUpdate{
		Name:      req.Name,
		Bio:       req.Bio,
		Interests: req.Interests,
		Avatar:    req.Avatar,
	})
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    toUserDTO(user),
	})
}

// HandleListUsers lists every other user, optionally filtered.
// GET /api/users?age=20-30&location=...&interest=...
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.users.List(r.Context(), UserIDFromContext(r.Context()), service.UserFilter{
		Age:      q.Get("age"),
		Location: q.Get("location"),
		Interest: q.Get("interest"),
	})
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(users))
}
