package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/cafescout/cafe-scout-api/internal/app/enrich"
	"github.com/cafescout/cafe-scout-api/internal/app/interactions"
	"github.com/cafescout/cafe-scout-api/internal/app/searches"
)

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	resp := errorResponse{Error: errorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: middleware.GetReqID(r.Context()),
	}}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeAppError maps an application-layer error to the envelope, falling back
// to a generic 500 so internals never leak to clients.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var se *searches.Error
	if errors.As(err, &se) {
		writeError(w, r, se.Status, se.Code, se.Message, se.Details)
		return
	}
	var ie *interactions.Error
	if errors.As(err, &ie) {
		writeError(w, r, ie.Status, ie.Code, ie.Message, ie.Details)
		return
	}
	var ee *enrich.Error
	if errors.As(err, &ee) {
		writeError(w, r, ee.Status, ee.Code, ee.Message, ee.Details)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
}
