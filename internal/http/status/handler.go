package status

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Syncer reports whether a collection is still reconciling with the
// remote store.
type Syncer interface {
	Syncing() bool
}

type Handler struct {
	collections map[string]Syncer
}

func NewHandler(collections map[string]Syncer) *Handler {
	return &Handler{collections: collections}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/sync/status", h.status)
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	perCollection := make(map[string]bool, len(h.collections))
	syncing := false

	for name, c := range h.collections {
		s := c.Syncing()
		perCollection[name] = s
		syncing = syncing || s
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(map[string]any{
		"syncing":     syncing,
		"collections": perCollection,
	})
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
