package report

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hsalif/penna/internal/ledger"
	"github.com/hsalif/penna/internal/rates"
	"github.com/hsalif/penna/internal/report"
)

type Handler struct {
	svc   *report.Service
	rates report.RateSource
}

func NewHandler(svc *report.Service, rateSource report.RateSource) *Handler {
	return &Handler{svc: svc, rates: rateSource}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/rates", h.exchangeRates)
	r.Get("/recurring/upcoming", h.upcoming)
	r.Post("/recurring/process", h.process)
}

// summary accepts ?view=monthly&month=2024-05 or ?view=yearly&year=2024,
// defaulting to the current month.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	period := report.Period{
		Year:  now.Year(),
		Month: now.Month(),
		View:  report.ViewMonthly,
	}

	if r.URL.Query().Get("view") == string(report.ViewYearly) {
		period.View = report.ViewYearly
	}

	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			http.Error(w, "invalid month, want YYYY-MM", http.StatusBadRequest)
			return
		}

		period.Year = parsed.Year()
		period.Month = parsed.Month()
	}

	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}

		period.Year = year
	}

	writeJSON(w, http.StatusOK, h.svc.Summary(r.Context(), period))
}

func (h *Handler) exchangeRates(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	if base == "" {
		http.Error(w, "base currency is required", http.StatusBadRequest)
		return
	}

	table, err := h.rates.Rates(r.Context(), base)
	if err != nil {
		if errors.Is(err, rates.ErrUnavailable) {
			http.Error(w, "rates unavailable", http.StatusServiceUnavailable)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"base": base, "rates": table})
}

func (h *Handler) upcoming(w http.ResponseWriter, _ *http.Request) {
	due := h.svc.UpcomingRecurring(time.Now())
	if due == nil {
		due = []report.Due{}
	}

	writeJSON(w, http.StatusOK, due)
}

type processRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created := h.svc.ProcessRecurring(req.IDs, time.Now())
	if created == nil {
		created = []ledger.Transaction{}
	}

	writeJSON(w, http.StatusCreated, created)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
