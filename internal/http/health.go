package http

import (
	"net/http"
	"time"

	"github.com/nextlevelbuilder/faqclaw/internal/faq"
)

// HealthHandler handles GET /health. It needs no auth.
type HealthHandler struct {
	catalog *faq.Catalog
	version string
}

func NewHealthHandler(catalog *faq.Catalog, version string) *HealthHandler {
	return &HealthHandler{catalog: catalog, version: version}
}

type healthResponse struct {
	Status   string    `json:"status"`
	Entries  int       `json:"entries"`
	LoadedAt time.Time `json:"loadedAt"`
	Version  string    `json:"version,omitempty"`
	Error    string    `json:"error,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Entries:  h.catalog.Len(),
		LoadedAt: h.catalog.LoadedAt(),
		Version:  h.version,
	}
	if err := h.catalog.LoadErr(); err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
