package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"course-chat/errors"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("encoding response failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// statusFor maps sentinel errors onto the HTTP taxonomy: invalid argument,
// unauthenticated, unavailable. Anything unmapped is a server error.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrInvalidReceiver),
		stderrors.Is(err, errors.ErrEmptyContent),
		stderrors.Is(err, errors.ErrContentTooLong),
		stderrors.Is(err, errors.ErrInvalidPeer),
		stderrors.Is(err, errors.ErrInvalidCursor),
		stderrors.Is(err, errors.ErrInvalidLimit),
		stderrors.Is(err, errors.ErrInvalidPassword),
		stderrors.Is(err, errors.ErrUserAlreadyExists):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrUnauthenticated),
		stderrors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}
