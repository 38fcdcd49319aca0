package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"warden.org/internal/auth"
	"warden.org/internal/org"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	body := map[string]any{"error": msg}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		body["request_id"] = rid
	}
	writeJSON(w, code, body)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// decodeJSON reads a single JSON document, rejecting unknown fields and
// trailing garbage.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}

// handleAuthError maps identity-domain failures onto HTTP statuses.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, rejectionMessage(err))
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, rejectionMessage(err))
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, rejectionMessage(err))
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, rejectionMessage(err))
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, rejectionMessage(err))
	default:
		writeError(w, r, http.StatusInternalServerError, "A database error occurred.")
	}
}

// handleOrgError maps organization-domain failures onto HTTP statuses.
func handleOrgError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, org.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, rejectionMessage(err))
	case errors.Is(err, org.ErrNotFound):
		writeError(w, r, http.StatusNotFound, rejectionMessage(err))
	case errors.Is(err, org.ErrConflict):
		writeError(w, r, http.StatusConflict, rejectionMessage(err))
	case errors.Is(err, org.ErrNotAServer):
		writeError(w, r, http.StatusUnprocessableEntity, rejectionMessage(err))
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, auth.ErrUnauthorized):
		handleAuthError(w, r, err)
	default:
		writeError(w, r, http.StatusInternalServerError, "A database error occurred.")
	}
}

// rejectionMessage strips the sentinel prefix, leaving the user-facing
// message a Rejection carries. Plain wrapped errors pass through whole.
func rejectionMessage(err error) string {
	var rej *auth.Rejection
	if errors.As(err, &rej) {
		return rej.Message
	}
	return err.Error()
}
