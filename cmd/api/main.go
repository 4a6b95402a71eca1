package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/sangkips/retailpos-api/internal/application/service"
	"github.com/sangkips/retailpos-api/internal/config"
	"github.com/sangkips/retailpos-api/internal/infrastructure/backend"
	"github.com/sangkips/retailpos-api/internal/infrastructure/cache"
	"github.com/sangkips/retailpos-api/internal/infrastructure/database"
	"github.com/sangkips/retailpos-api/internal/infrastructure/repository"
	"github.com/sangkips/retailpos-api/internal/infrastructure/storage"
	"github.com/sangkips/retailpos-api/internal/presentation/http/handler"
	"github.com/sangkips/retailpos-api/internal/presentation/http/middleware"
	"github.com/sangkips/retailpos-api/internal/presentation/http/routes"
	"github.com/sangkips/retailpos-api/pkg/barcode"
	"github.com/sangkips/retailpos-api/pkg/label"
	"github.com/sangkips/retailpos-api/pkg/printer"
)

const idempotencySweepInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()
	logger := config.NewLogger(cfg.Log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, logger); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	// Initialize repositories
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	printLogRepo := repository.NewLabelPrintLogRepository(db)
	billRepo := backend.NewBillClient(cfg.Backend, nil)

	barcodeCache, locker, closeCache := newBarcodeCache(ctx, cfg.Redis, logger)
	defer closeCache()

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		logger.WithError(err).Warn("failed to initialize printer, labels fall back to PDF")
		thermalPrinter = printer.NewNullPrinter()
	}
	defer thermalPrinter.Close()

	documents, closeDocuments, err := newDocumentStore(ctx, cfg.Storage)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize document storage")
	}
	defer closeDocuments()

	layout := label.Layout{
		WidthMM:        cfg.Label.WidthMM,
		HeightMM:       cfg.Label.HeightMM,
		DPI:            cfg.Printer.DPI,
		CurrencyPrefix: cfg.Label.Currency,
	}

	// Initialize services
	encoder := barcode.NewEncoder()
	pipeline := label.NewPipeline(encoder, barcodeCache, barcode.DefaultGeometry, logger)
	fetchLogo := label.NewFetcher(&http.Client{Timeout: cfg.Label.AssetTimeout}, label.FetchPolicy{
		LocalPaths: []string{cfg.Label.LogoPath},
		Hosts:      cfg.Label.LogoHosts,
	})
	presenters := []service.Presenter{
		service.NewThermalPresenter(thermalPrinter, layout),
		service.NewDocumentPresenter(documents, layout, logger),
	}
	labelService := service.NewLabelService(pipeline, presenters, documents, printLogRepo, service.LabelServiceOptions{
		Layout:       layout,
		AssetTimeout: cfg.Label.AssetTimeout,
		DefaultLogo:  cfg.Label.LogoPath,
		Fetch:        fetchLogo,
	}, logger)
	billService := service.NewBillService(billRepo, labelService, locker, cfg.Billing.AllocationScale, logger)
	printerService := service.NewPrinterService(thermalPrinter, encoder, cfg.Printer.Type, logger)

	// Initialize handlers
	handlers := &routes.Handlers{
		Billing: handler.NewBillingHandler(billService),
		Return:  handler.NewReturnHandler(billService),
		Label:   handler.NewLabelHandler(labelService, billService, cfg.Storage.UploadMaxSize),
		Printer: handler.NewPrinterHandler(printerService),
	}

	// Per-terminal rate limiter
	rateLimiter := middleware.NewTerminalRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.RateLimit.Requests) / float64(max(cfg.RateLimit.Duration, 1)),
		BurstSize:         cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
	defer rateLimiter.Stop()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Logger:          logger,
		RateLimiter:     rateLimiter,
	})

	go sweepIdempotencyKeys(ctx, idempotencyRepo.DeleteExpired, logger)

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"service": cfg.App.Name,
			"port":    port,
			"env":     cfg.App.Env,
			"printer": thermalPrinter.Kind(),
			"storage": documents.Kind(),
		}).Info("starting server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

// newBarcodeCache prefers Redis, then an in-process LRU. The returned
// locker is only distributed when Redis is reachable.
func newBarcodeCache(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger) (label.Cache, cache.Locker, func()) {
	if cfg.Addr != "" {
		redisCache := cache.NewRedisBarcodeCache(cfg.Addr, cfg.Password, cfg.DB, cfg.BarcodeTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := redisCache.Ping(pingCtx)
		if err == nil {
			logger.WithField("addr", cfg.Addr).Info("barcode cache: redis")
			return redisCache, cache.NewRedisLocker(redisCache.Client()), func() { redisCache.Close() }
		}
		logger.WithError(err).Warn("redis unreachable, using in-process barcode cache")
		redisCache.Close()
	}

	if cfg.MemoryEntries > 0 {
		memoryCache, err := cache.NewMemoryBarcodeCache(cfg.MemoryEntries)
		if err == nil {
			return memoryCache, cache.NoopLocker{}, func() {}
		}
		logger.WithError(err).Warn("in-process barcode cache disabled")
	}

	return cache.NoopBarcodeCache{}, cache.NoopLocker{}, func() {}
}

func newDocumentStore(ctx context.Context, cfg config.StorageConfig) (storage.DocumentStore, func(), error) {
	if cfg.Driver == "gcs" {
		store, err := storage.NewGCSDocumentStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON, "labels/")
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}

	store, err := storage.NewLocalDocumentStore(cfg.Path + "/labels")
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func sweepIdempotencyKeys(ctx context.Context, deleteExpired func(context.Context) error, logger *logrus.Logger) {
	ticker := time.NewTicker(idempotencySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := deleteExpired(ctx); err != nil {
				logger.WithError(err).Warn("failed to delete expired idempotency keys")
			}
		}
	}
}
