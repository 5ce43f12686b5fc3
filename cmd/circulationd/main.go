// cmd/circulationd/main.go
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"circulib/internal/app"
	"circulib/internal/circulation"
	"circulib/internal/clients"
	"circulib/internal/journal"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := app.NewLogger(cfg)

	ctx := context.Background()
	shutdownTracing, err := app.SetupTracing(ctx, cfg)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var loanJournal circulation.Journal
	jr := journal.New(db)
	if err := jr.EnsureSchema(ctx); err != nil {
		// The journal is audit only; the service still circulates without it.
		logger.Warn("journal unavailable, continuing without audit trail", "error", err)
	} else {
		loanJournal = jr
	}

	ledger := circulation.NewInventoryLedger()
	store := circulation.NewLoanStore()
	engine := circulation.NewEngine(ledger, store, circulation.EngineConfig{
		LoanPeriodDays: cfg.LoanPeriodDays,
		FineRatePerDay: cfg.FineRatePerDay,
		Clock:          time.Now,
	})
	scanner := circulation.NewOverdueScanner(store)

	svc := circulation.NewService(circulation.ServiceParams{
		Engine:  engine,
		Ledger:  ledger,
		Scanner: scanner,
		Loans:   store,
		Catalog: clients.NewCatalogClient(cfg.CatalogServiceURL),
		Members: clients.NewMembershipClient(cfg.MembershipServiceURL),
		Journal: loanJournal,
		Logger:  logger,
	})

	router := app.NewRouter(logger, cfg, circulation.NewHandler(svc, logger))

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	logger.Info("starting circulation service", "addr", cfg.AppAddr, "loan_period_days", cfg.LoanPeriodDays)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
