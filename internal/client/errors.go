package client

import (
	"fmt"
	"net/http"

	"github.com/msomdec/friendconnect/internal/domain"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

var conflictMessages = map[string]error{
	"User already exists":         domain.ErrDuplicateEmail,
	"Friend request already sent": domain.ErrDuplicateRequest,
	"Already friends":             domain.ErrAlreadyFriends,
}

// Unwrap maps the status onto the matching domain error so callers can use
// errors.Is the same way for the server and the mirror.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		if err, ok := conflictMessages[e.Message]; ok {
			return err
		}
		return domain.ErrInvalidInput
	case http.StatusUnauthorized:
		if e.Message == "Access token required" {
			return domain.ErrMissingToken
		}
		return domain.ErrInvalidCredentials
	case http.StatusForbidden:
		return domain.ErrInvalidToken
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}
