package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hsalif/penna/internal/http/attachment"
	"github.com/hsalif/penna/internal/http/auth"
	"github.com/hsalif/penna/internal/http/collection"
	"github.com/hsalif/penna/internal/http/report"
	"github.com/hsalif/penna/internal/http/status"
	"github.com/hsalif/penna/internal/ledger"
)

func New(
	authV1 *auth.Handler,
	transactionsV1 *collection.Handler[ledger.Transaction],
	categoriesV1 *collection.Handler[ledger.Category],
	recurringV1 *collection.Handler[ledger.RecurringExpense],
	reportV1 *report.Handler,
	statusV1 *status.Handler,
	attachmentsV1 *attachment.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			authV1.Routes(r)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			categoriesV1.Routes(r)
		})

		r.Route("/recurring-expenses", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			recurringV1.Routes(r)
		})

		reportV1.Routes(r)
		statusV1.Routes(r)
		attachmentsV1.Routes(r)
	})

	return router
}
