package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/alquiler/internal/config"
	"github.com/mamadbah2/alquiler/internal/domain/models"
	"github.com/mamadbah2/alquiler/internal/repository/mongodb"
	"github.com/mamadbah2/alquiler/internal/repository/sheets"
	"github.com/mamadbah2/alquiler/internal/scheduler"
	"github.com/mamadbah2/alquiler/internal/server/handlers"
	"github.com/mamadbah2/alquiler/internal/server/router"
	"github.com/mamadbah2/alquiler/internal/service/accordion"
	"github.com/mamadbah2/alquiler/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/alquiler/internal/service/reporting"
	"github.com/mamadbah2/alquiler/pkg/clients/alquiler"
	"github.com/mamadbah2/alquiler/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var (
		journal ledger.Journal
		commits handlers.CommitLister
	)
	if cfg.MongoDB.Enabled() {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		journal, commits = mongoRepo, mongoRepo
		baseLogger.Info("commit journal enabled", zap.String("db", cfg.MongoDB.DBName))
	} else {
		baseLogger.Warn("mongodb uri missing, commit journal disabled")
	}

	var exporter handlers.Exporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = reportingsvc.NewService(sheetsRepo, baseLogger.Named("svc.reporting"))
		baseLogger.Info("sheet export enabled")
	} else {
		baseLogger.Warn("google sheets settings missing, sheet export disabled")
	}

	backend := alquiler.NewClient(cfg.Backend)
	ledgerSvc := ledger.NewService(backend, journal, baseLogger.Named("svc.ledger"))
	rows := accordion.New(ledgerSvc, baseLogger.Named("svc.accordion"))
	defer rows.Close()

	ledgerHandler := handlers.NewLedgerHandler(ledgerSvc, rows, exporter, commits, models.Role(cfg.Session.Role), baseLogger.Named("handlers.ledger"))
	engine := router.New(ledgerHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Validation, ledgerSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()
	go sched.RunNow()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
