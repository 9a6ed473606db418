// Package collection exposes a synchronized collection over HTTP. All
// writes go through the collection's setter so the cache mirror and remote
// pushes stay on the single write path.
package collection

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hsalif/penna/internal/ledger"
	"github.com/hsalif/penna/internal/synced"
)

// Handler serves one entity collection. prepare normalizes and validates an
// incoming entity (assigning an identifier when absent); it may be nil.
type Handler[T ledger.Entity] struct {
	col     *synced.Collection[T]
	prepare func(T) (T, error)
	prepend bool // new entities go first (transactions read newest-first)
}

func NewHandler[T ledger.Entity](col *synced.Collection[T], prepare func(T) (T, error), prepend bool) *Handler[T] {
	return &Handler[T]{col: col, prepare: prepare, prepend: prepend}
}

func (h *Handler[T]) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/", h.replace)
	r.Post("/", h.add)
	r.Put("/{id}", h.edit)
	r.Delete("/{id}", h.delete)
}

func (h *Handler[T]) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.col.Items())
}

// replace swaps the whole collection, the setCollection surface of the
// sync service.
func (h *Handler[T]) replace(w http.ResponseWriter, r *http.Request) {
	var next []T
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for i, item := range next {
		prepared, err := h.prepared(item)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		next[i] = prepared
	}

	h.col.Set(next)
	writeJSON(w, http.StatusOK, h.col.Items())
}

func (h *Handler[T]) add(w http.ResponseWriter, r *http.Request) {
	var item T
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.prepared(item)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.col.Update(func(items []T) []T {
		if h.prepend {
			return append([]T{item}, items...)
		}

		return append(items, item)
	})

	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler[T]) edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var item T
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if item.EntityID() != id {
		http.Error(w, "identifier mismatch", http.StatusBadRequest)
		return
	}

	item, err := h.prepared(item)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	found := false

	h.col.Update(func(items []T) []T {
		for i := range items {
			if items[i].EntityID() == id {
				items[i] = item
				found = true

				break
			}
		}

		return items
	})

	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *Handler[T]) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.col.Update(func(items []T) []T {
		next := items[:0]

		for _, item := range items {
			if item.EntityID() != id {
				next = append(next, item)
			}
		}

		return next
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler[T]) prepared(item T) (T, error) {
	if h.prepare == nil {
		return item, nil
	}

	return h.prepare(item)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
