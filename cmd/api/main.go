package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hsalif/penna/internal/attach"
	"github.com/hsalif/penna/internal/config"
	"github.com/hsalif/penna/internal/database"
	pennaHttp "github.com/hsalif/penna/internal/http"
	attachmentHandler "github.com/hsalif/penna/internal/http/attachment"
	authHandler "github.com/hsalif/penna/internal/http/auth"
	collectionHandler "github.com/hsalif/penna/internal/http/collection"
	reportHandler "github.com/hsalif/penna/internal/http/report"
	statusHandler "github.com/hsalif/penna/internal/http/status"
	"github.com/hsalif/penna/internal/ledger"
	"github.com/hsalif/penna/internal/localcache"
	"github.com/hsalif/penna/internal/rates"
	"github.com/hsalif/penna/internal/remote"
	"github.com/hsalif/penna/internal/report"
	"github.com/hsalif/penna/internal/session"
	sessionStore "github.com/hsalif/penna/internal/session/store"
	"github.com/hsalif/penna/internal/synced"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cache, err := localcache.Open(cfg.App.CachePath)
	if err != nil {
		slog.Error("failed to open local cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	users := sessionStore.New(db)

	if err := remote.EnsureSchema(ctx, db); err != nil {
		slog.Error("failed to ensure remote schema", "error", err)
		os.Exit(1)
	}

	if err := users.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure users schema", "error", err)
		os.Exit(1)
	}

	var (
		transactions = synced.NewCollection[ledger.Transaction](
			remote.TableTransactions,
			cache,
			remote.NewStore[ledger.Transaction](db, remote.TableTransactions),
			nil,
		)
		categories = synced.NewCollection(
			remote.TableCategories,
			cache,
			remote.NewStore[ledger.Category](db, remote.TableCategories),
			ledger.DefaultCategories(),
		)
		recurring = synced.NewCollection(
			remote.TableRecurringExpenses,
			cache,
			remote.NewStore[ledger.RecurringExpense](db, remote.TableRecurringExpenses),
			ledger.DefaultRecurringExpenses(),
		)
	)

	transactions.Load()
	categories.Load()
	recurring.Load()

	provider := session.NewProvider(
		session.NewService(users, cfg.Session.JWTSecret, cfg.Session.TokenTTL),
		cache,
	)
	provider.Register(transactions)
	provider.Register(categories)
	provider.Register(recurring)
	provider.Restore()

	var (
		rateService   = rates.NewService(cfg.Rates.BaseURL, cache)
		reportService = report.NewService(transactions, categories, recurring, rateService, cfg.App.MainCurrency)
		attachService = attach.NewService(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	)

	var (
		authH         = authHandler.NewHandler(provider)
		transactionsH = collectionHandler.NewHandler(transactions, prepareTransaction(categories), true)
		categoriesH   = collectionHandler.NewHandler(categories, prepareCategory, false)
		recurringH    = collectionHandler.NewHandler(recurring, prepareRecurring, false)
		reportH       = reportHandler.NewHandler(reportService, rateService)
		statusH       = statusHandler.NewHandler(map[string]statusHandler.Syncer{
			"transactions":       transactions,
			"categories":         categories,
			"recurring_expenses": recurring,
		})
		attachmentH = attachmentHandler.NewHandler(attachService)
	)

	router := pennaHttp.New(authH, transactionsH, categoriesH, recurringH, reportH, statusH, attachmentH)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()

		timeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(timeout); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", server.Addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	// Let in-flight remote pushes finish before the process exits.
	transactions.Wait()
	categories.Wait()
	recurring.Wait()
}
