package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/faqclaw/internal/faq"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// FAQHandler serves the knowledge base: read access for clients and edits
// for operators. Every edit reloads the catalog.
type FAQHandler struct {
	catalog *faq.Catalog
	guard   guard
}

func NewFAQHandler(catalog *faq.Catalog, token string) *FAQHandler {
	return &FAQHandler{catalog: catalog, guard: guard{token: token}}
}

// SetRateLimiter sets the rate limiter function for HTTP requests.
func (h *FAQHandler) SetRateLimiter(fn func(string) bool) {
	h.guard.rateLimiter = fn
}

// RegisterRoutes registers the FAQ routes on the given mux.
func (h *FAQHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/faq", h.guard.wrap(h.handleList))
	mux.HandleFunc("POST /v1/faq", h.guard.wrap(h.handlePut))
	mux.HandleFunc("POST /v1/faq/reload", h.guard.wrap(h.handleReload))
	mux.HandleFunc("GET /v1/faq/{id}", h.guard.wrap(h.handleGet))
	mux.HandleFunc("DELETE /v1/faq/{id}", h.guard.wrap(h.handleDelete))
}

type faqListResponse struct {
	Entries  []store.FAQEntry `json:"entries"`
	Count    int              `json:"count"`
	LoadedAt time.Time        `json:"loadedAt"`
}

func (h *FAQHandler) handleList(w http.ResponseWriter, r *http.Request) {
	entries := h.catalog.Entries()
	if entries == nil {
		entries = []store.FAQEntry{}
	}
	writeJSON(w, http.StatusOK, faqListResponse{
		Entries:  entries,
		Count:    len(entries),
		LoadedAt: h.catalog.LoadedAt(),
	})
}

func (h *FAQHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid entry ID")
		return
	}
	e, err := h.catalog.Store().Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *FAQHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	var e store.FAQEntry
	if err := decodeBody(w, r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON: "+err.Error())
		return
	}
	if err := store.ValidateEntry(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	status := http.StatusCreated
	if e.ID != uuid.Nil {
		status = http.StatusOK
	}
	if err := h.catalog.Store().Put(r.Context(), &e); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	slog.Info("faq entry saved", "id", e.ID, "user", store.UserIDFromContext(r.Context()))
	h.reload(r)
	writeJSON(w, status, e)
}

func (h *FAQHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid entry ID")
		return
	}
	err = h.catalog.Store().Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	slog.Info("faq entry deleted", "id", id, "user", store.UserIDFromContext(r.Context()))
	h.reload(r)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *FAQHandler) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reload(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"entries": h.catalog.Len()})
}

func (h *FAQHandler) reload(r *http.Request) {
	if err := h.catalog.Reload(r.Context()); err != nil {
		slog.Warn("faq catalog reload after edit failed", "error", err)
	}
}
