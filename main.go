package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wedbook/config"
	"wedbook/cron"
	"wedbook/database"
	recordsRepo "wedbook/database/repository/records"
	"wedbook/handlers"
	"wedbook/middleware"
	"wedbook/routes"
	"wedbook/services/availability"
	"wedbook/services/booking"
	"wedbook/services/events"
	"wedbook/services/recordstore"
	"wedbook/services/tasks"
	"wedbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	utils.RegisterMetrics()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Audit log is optional; without Mongo, submissions are only logged.
	var records recordsRepo.SubmissionRecordRepository
	if cfg.DatabaseURL != "" {
		if err := database.InitDB(); err != nil {
			logger.Fatal("main: mongo", zap.Error(err))
		}
		records = recordsRepo.NewMongoSubmissionRepo(database.Database())
		if err := recordsRepo.EnsureIndexes(records); err != nil {
			logger.Warn("main: submission indexes", zap.Error(err))
		}
	}

	if cfg.RedisEnabled() {
		if err := utils.InitSessionCache(); err != nil {
			logger.Fatal("main: redis", zap.Error(err))
		}
	}

	store := recordstore.NewClient(cfg.RecordStoreURL, cfg.RecordStoreTimeout(), logger)

	var cache availability.Cache
	switch cfg.CacheBackend {
	case "redis":
		if !cfg.RedisEnabled() {
			logger.Fatal("main: CACHE_BACKEND=redis needs REDIS_ADDR")
		}
		if err := utils.InitCache(); err != nil {
			logger.Fatal("main: redis", zap.Error(err))
		}
		cache = availability.NewRedisCache(utils.CacheClient, 0)
	default:
		cache = availability.NewMemoryCache(cfg.CacheMaxEntries)
	}
	availabilitySvc := availability.NewService(store, cache, cfg.DefaultMaxBookingsPerDay, logger)

	bus := events.NewLocalBus(logger)

	var sessions booking.SessionStore
	if cfg.RedisEnabled() {
		sessions = booking.NewRedisSessionStore(utils.SessionClient, cfg.SessionTTL())
	} else {
		sessions = booking.NewMemorySessionStore(cfg.SessionTTL())
	}

	var recorder booking.Recorder
	if records != nil {
		recorder = records
	}
	workflow := booking.NewSubmissionWorkflow(
		availabilitySvc,
		store,
		bus,
		recorder,
		utils.StoreHealthHint{},
		booking.Config{
			SubmitTimeout:         cfg.SubmitTimeout(),
			CheckTimeout:          cfg.RecordStoreTimeout(),
			ProceedOnInconclusive: cfg.InconclusiveAvailabilityProceeds,
			SupportContact:        cfg.SupportContact,
		},
		logger,
	)

	// Degraded successes are verified later when a queue is available.
	var (
		queue     *asynq.Client
		verifySrv *asynq.Server
	)
	if cfg.RedisEnabled() {
		addr, password, db := utils.QueueRedisOpt()
		queue = asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password, DB: db})
		unsubscribe := tasks.SubscribeVerification(bus, queue, cfg.VerifyDelay(), logger)
		defer unsubscribe()

		verifySrv = cron.InitVerifyWorker(&cron.Verifier{
			Store:       store,
			Records:     records,
			Invalidator: availabilitySvc,
			Bus:         bus,
			Logger:      logger,
		})

		if records != nil && cfg.VerifySweepSpec != "" {
			sweep := &cron.VerificationSweep{Records: records, Queue: queue, Limit: int64(cfg.VerifySweepLimit), Logger: logger}
			sweeper, err := sweep.Start(cfg.VerifySweepSpec)
			if err != nil {
				logger.Fatal("main: verification sweep", zap.Error(err))
			}
			defer sweeper.Stop()
		}
	} else {
		logger.Warn("main: no REDIS_ADDR; degraded bookings will not be verified automatically")
	}

	probe := &cron.HealthProbe{Store: store, Redis: utils.RedisClients(), Mongo: database.MongoClient, Logger: logger}
	if cfg.HealthProbeSpec != "" {
		scheduler, err := probe.Start(cfg.HealthProbeSpec)
		if err != nil {
			logger.Fatal("main: health probe", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	if err := middleware.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		logger.Fatal("main: TRUSTED_PROXIES", zap.Error(err))
	}

	// Create the Gin router.
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		logger.Fatal("main: TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(utils.ErrorHandler(logger))
	router.Use(gin.Logger())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	handlerBundle := handlers.NewHandlerBundle(
		&handlers.AvailabilityHandler{Svc: availabilitySvc, Logger: logger},
		&handlers.BookingHandler{Workflow: workflow, Sessions: sessions, Logger: logger},
		&handlers.HooksHandler{Invalidator: availabilitySvc, Bus: bus, Logger: logger},
		&handlers.EventsHandler{Bus: bus, Logger: logger},
		&handlers.HealthHandler{StartedAt: time.Now()},
	)
	routes.RegisterRoutes(router, handlerBundle, middleware.OptionalIdentityMiddleware(cfg.JWTSecret, logger))

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if verifySrv != nil {
		verifySrv.Shutdown()
	}
	if queue != nil {
		_ = queue.Close()
	}
	for _, c := range utils.RedisClients() {
		_ = c.Close()
	}
	if err := database.Disconnect(ctx); err != nil {
		logger.Sugar().Errorf("main: mongo disconnect: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
