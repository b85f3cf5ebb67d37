package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/msomdec/friendconnect/internal/domain"
)

const (
	msgInternal      = "Something went wrong!"
	msgTokenRequired = "Access token required"
	msgInvalidToken  = "Invalid token"
	msgBadBody       = "Invalid request body"
)

// writeServiceError maps a service error onto an HTTP status and a client
// message. notFound is the message used for domain.ErrNotFound. Unexpected
// errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, clientMessage(err, domain.ErrInvalidInput))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, clientMessage(err, domain.ErrConflict))
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, msgTokenRequired)
	case errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusForbidden, msgInvalidToken)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// clientMessage returns the detail that follows base in err's text, with the
// first letter capitalised, e.g. "invalid input: age must be ..." becomes
// "Age must be ...".
func clientMessage(err, base error) string {
	msg := err.Error()
	prefix := base.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		msg = msg[i+len(prefix):]
	}
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
