package http

import (
	"net/http"
	"strings"

	"github.com/nextlevelbuilder/faqclaw/internal/chat"
)

// MatchHandler handles POST /v1/match: the full ranking for a query.
type MatchHandler struct {
	responder *chat.Responder
	guard     guard
}

func NewMatchHandler(responder *chat.Responder, token string) *MatchHandler {
	return &MatchHandler{responder: responder, guard: guard{token: token}}
}

// SetRateLimiter sets the rate limiter function for HTTP requests.
func (h *MatchHandler) SetRateLimiter(fn func(string) bool) {
	h.guard.rateLimiter = fn
}

type matchRequest struct {
	Query     string  `json:"query"`
	Threshold float64 `json:"threshold,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

func (h *MatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method not allowed")
		return
	}
	h.guard.wrap(h.serve)(w, r)
}

func (h *MatchHandler) serve(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
		return
	}
	if req.Threshold < 0 || req.Threshold > 100 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "threshold must be within [0, 100]")
		return
	}

	res, err := h.responder.Match(r.Context(), req.Query, req.Threshold, req.Limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
