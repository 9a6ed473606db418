package attachment

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hsalif/penna/internal/attach"
)

type Handler struct {
	svc *attach.Service
}

func NewHandler(svc *attach.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/upload", h.upload)
	r.Get("/files/{file_id}", h.download)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	uploaded, err := h.svc.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		slog.Error("attachment upload failed", "file", header.Filename, "error", err)
		http.Error(w, "upload failed", http.StatusBadGateway)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(uploaded); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	body, contentType, err := h.svc.Download(r.Context(), fileID)
	if err != nil {
		slog.Error("attachment download failed", "file_id", fileID, "error", err)
		http.Error(w, "attachment not found", http.StatusNotFound)

		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `inline; filename="attachment"`)
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, body); err != nil {
		slog.Error("streaming attachment", "file_id", fileID, "error", err)
	}
}
