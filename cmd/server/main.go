package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/config"
	"github.com/hjmsindangan/stockbook/internal/inventory"
	"github.com/hjmsindangan/stockbook/internal/ledger"
	"github.com/hjmsindangan/stockbook/internal/repository/mongodb"
	"github.com/hjmsindangan/stockbook/internal/repository/sheets"
	"github.com/hjmsindangan/stockbook/internal/scheduler"
	"github.com/hjmsindangan/stockbook/internal/server/handlers"
	"github.com/hjmsindangan/stockbook/internal/server/router"
	reportingsvc "github.com/hjmsindangan/stockbook/internal/service/reporting"
	"github.com/hjmsindangan/stockbook/pkg/clients/alerts"
	"github.com/hjmsindangan/stockbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := time.LoadLocation(cfg.Inventory.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.String("timezone", cfg.Inventory.Timezone), zap.Error(err))
	}

	policy, err := ledger.ParsePolicy(cfg.Inventory.CoercionPolicy)
	if err != nil {
		baseLogger.Fatal("invalid coercion policy", zap.Error(err))
	}

	sheetStore, err := sheets.NewGoogleSheetStore(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets store", zap.Error(err))
	}
	cachedStore := sheets.NewCachedStore(sheetStore, time.Duration(cfg.Inventory.CacheTTLSecs)*time.Second, baseLogger.Named("repo.cache"))

	var archive reportingsvc.Archive
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, report archiving disabled")
	}

	engine := ledger.NewEngine(ledger.DefaultSchema(), policy, loc, baseLogger.Named("ledger"))
	invSvc := inventory.NewService(cachedStore, engine, cfg.Inventory.RecordsSheet, cfg.Inventory.CategorySheets, loc, baseLogger.Named("svc.inventory"))
	reportingSvc := reportingsvc.NewService(invSvc, archive, baseLogger.Named("svc.reporting"))

	var alertClient alerts.Client
	if cfg.Alerts.WebhookURL != "" {
		alertClient = alerts.NewClient(cfg.Alerts)
		baseLogger.Info("low stock alerts enabled")
	} else {
		baseLogger.Warn("alert webhook url missing, low stock alerts disabled")
	}

	authHandler := handlers.NewAuthHandler(cfg.Auth, baseLogger.Named("handlers.auth"))
	invHandler := handlers.NewInventoryHandler(invSvc, reportingSvc, engine.Schema(), baseLogger.Named("handlers.inventory"))
	ginEngine := router.New(authHandler, invHandler, cfg.Auth, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, alertClient, loc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      ginEngine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
