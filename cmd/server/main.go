package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/config"
	"github.com/mamadbah2/hatchery/internal/metrics"
	"github.com/mamadbah2/hatchery/internal/repository"
	"github.com/mamadbah2/hatchery/internal/repository/mongodb"
	"github.com/mamadbah2/hatchery/internal/repository/sheets"
	"github.com/mamadbah2/hatchery/internal/repository/sqlite"
	"github.com/mamadbah2/hatchery/internal/scheduler"
	"github.com/mamadbah2/hatchery/internal/server/handlers"
	"github.com/mamadbah2/hatchery/internal/server/router"
	catalogsvc "github.com/mamadbah2/hatchery/internal/service/catalog"
	commandsvc "github.com/mamadbah2/hatchery/internal/service/commands"
	incubationsvc "github.com/mamadbah2/hatchery/internal/service/incubation"
	reportingsvc "github.com/mamadbah2/hatchery/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/hatchery/internal/service/whatsapp"
	"github.com/mamadbah2/hatchery/internal/trajectory"
	whatsappclient "github.com/mamadbah2/hatchery/pkg/clients/whatsapp"
	"github.com/mamadbah2/hatchery/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := openStore(context.Background(), cfg.Store)
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	promMetrics := metrics.NewPrometheus()

	incubationOpts := []incubationsvc.Option{
		incubationsvc.WithDefaultLoss(cfg.Incubation.DefaultMidHumidityLoss),
		incubationsvc.WithRecorder(promMetrics),
	}
	if cfg.Incubation.RecommendFromKnownDay {
		incubationOpts = append(incubationOpts, incubationsvc.WithPolicy(trajectory.PinHoleRecommender{
			CurrentDay: trajectory.WeightSeries.LatestKnownDay,
		}))
	}
	incubationSvc := incubationsvc.NewService(store, store, baseLogger.Named("svc.incubation"), incubationOpts...)
	catalogSvc := catalogsvc.NewService(store, baseLogger.Named("svc.catalog"))
	reportingSvc := reportingsvc.NewService(incubationSvc, incubationSvc, baseLogger.Named("svc.reporting"))

	var exporter sheets.SeriesExporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = sheetsRepo
	} else {
		baseLogger.Info("google sheets export disabled")
	}

	h := router.Handlers{
		Eggs:    handlers.NewEggHandler(incubationSvc, exporter, baseLogger.Named("handlers.eggs")),
		Catalog: handlers.NewCatalogHandler(catalogSvc, baseLogger.Named("handlers.catalog")),
		Metrics: promMetrics.Handler(),
	}

	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(incubationSvc, reportingSvc, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))

		var digest handlers.DigestTrigger
		if cfg.WhatsApp.ReportRecipient != "" {
			sched, err := scheduler.NewScheduler(*cfg, reportingSvc, messagingSvc, baseLogger.Named("scheduler"))
			if err != nil {
				baseLogger.Fatal("failed to init scheduler", zap.Error(err))
			}
			if err := sched.Start(); err != nil {
				baseLogger.Fatal("failed to start scheduler", zap.Error(err))
			}
			defer sched.Stop()
			digest = sched
		} else {
			baseLogger.Warn("WHATSAPP_REPORT_RECIPIENT missing, daily digest disabled")
		}

		h.Webhook = handlers.NewWebhookHandler(messagingSvc, digest, baseLogger.Named("handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp token missing, chat commands disabled")
	}

	engine := router.New(h, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
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

func openStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMongoDB:
		return mongodb.NewMongoDBRepository(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.DriverSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
