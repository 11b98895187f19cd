// File: bookingpay/main.go
package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookingpay/config"
	"bookingpay/cron"
	"bookingpay/database"
	bookingRepo "bookingpay/database/repository/booking"
	paymentRepo "bookingpay/database/repository/payment"
	providerRepo "bookingpay/database/repository/provider"
	"bookingpay/handlers"
	"bookingpay/middleware"
	"bookingpay/routes"
	"bookingpay/services/booking"
	"bookingpay/services/notification"
	"bookingpay/services/rails"
	"bookingpay/services/settlement"
	"bookingpay/services/tasks"
	"bookingpay/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Provider directory and catalog always live in Mongo.
	database.InitDB()
	mongoDB := database.MongoDatabase()
	mongoDirectory, err := providerRepo.NewMongoDirectory(mongoDB)
	if err != nil {
		logger.Fatal("main: failed to initialize provider directory", zap.Error(err))
	}
	cache := utils.GetCacheClient()
	directory := providerRepo.NewCachedDirectory(mongoDirectory, cache, cfg.CatalogCacheTTL, logger)

	// repositories.
	var (
		bookings bookingRepo.BookingRepository
		payments paymentRepo.PaymentRepository
		dbPing   func(context.Context) error
	)
	switch strings.ToLower(cfg.DBDriver) {
	case "postgres":
		db, err := database.InitPostgres()
		if err != nil {
			logger.Fatal("main: failed to connect to Postgres", zap.Error(err))
		}
		if bookings, err = bookingRepo.NewGormBookingRepo(db); err != nil {
			logger.Fatal("main: failed to migrate bookings", zap.Error(err))
		}
		if payments, err = paymentRepo.NewGormPaymentRepo(db); err != nil {
			logger.Fatal("main: failed to migrate payments", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("main: failed to get SQL handle", zap.Error(err))
		}
		dbPing = sqlDB.PingContext
	default:
		if bookings, err = bookingRepo.NewMongoBookingRepo(mongoDB); err != nil {
			logger.Fatal("main: failed to initialize bookings", zap.Error(err))
		}
		if payments, err = paymentRepo.NewMongoPaymentRepo(mongoDB); err != nil {
			logger.Fatal("main: failed to initialize payments", zap.Error(err))
		}
		dbPing = func(ctx context.Context) error { return database.MongoClient.Ping(ctx, nil) }
	}

	// background queue.
	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
	queueClient := asynq.NewClient(redisOpts)
	defer queueClient.Close()
	enqueuer := tasks.NewEnqueuer(queueClient, logger)

	// notifications.
	hub := notification.NewHub(logger)
	go hub.Run(ctx)

	sinks := []notification.Sink{hub}
	var pusher cron.EventPusher
	if cfg.FirebaseCredentialsFile != "" {
		messagingClient, err := utils.FirebaseInit(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("main: failed to initialize Firebase", zap.Error(err))
		}
		pusher = notification.NewPushService(directory, messagingClient, logger)
		sinks = append(sinks, notification.NewQueueSink(enqueuer))
	} else {
		logger.Warn("main: FIREBASE_CREDENTIALS_FILE not set, push notifications disabled")
	}
	dispatcher := notification.NewDispatcher(cfg.NotifyBuffer, logger, sinks...)
	dispatcher.Start()

	// services.
	feePercent, err := decimal.NewFromString(cfg.PlatformFeePercent)
	if err != nil || feePercent.IsNegative() {
		logger.Fatal("main: invalid PLATFORM_FEE_PERCENT", zap.String("value", cfg.PlatformFeePercent), zap.Error(err))
	}
	orchestrator := &settlement.Orchestrator{
		Bookings:  bookings,
		Payments:  payments,
		Directory: directory,
		Fees: rails.NewStripeFeeRail(rails.StripeConfig{
			Key:    cfg.StripeKey,
			APIURL: cfg.StripeAPIURL,
			Logger: logger,
		}),
		Transfers: rails.NewPlaidTransferRail(rails.PlaidConfig{
			ClientID: cfg.PlaidClientID,
			Secret:   cfg.PlaidSecret,
			BaseURL:  cfg.PlaidEnvURL,
			Logger:   logger,
		}),
		Notifier: dispatcher,
		Payouts:  enqueuer,
		Config: settlement.Config{
			FeePercent: feePercent,
			Currency:   cfg.Currency,
			Retry: rails.RetryPolicy{
				MaxRetries: cfg.RailMaxRetries,
				BaseDelay:  cfg.RailBackoffBase,
				MaxDelay:   5 * time.Second,
				Timeout:    cfg.RailTimeout,
			},
			StaleAfter: 10 * time.Minute,
		},
		Logger: logger,
	}
	bookingService := &booking.DefaultBookingService{
		Bookings:          bookings,
		Directory:         directory,
		Notifier:          dispatcher,
		Scheduler:         enqueuer,
		AutoCompleteAfter: cfg.AutoCompleteAfter,
		Currency:          cfg.Currency,
		Logger:            logger,
	}

	worker, err := cron.InitWorker(redisOpts, cron.Handlers{
		Push:       pusher,
		Settlement: orchestrator,
		Bookings:   bookingService,
	}, logger)
	if err != nil {
		logger.Fatal("main: failed to start task worker", zap.Error(err))
	}

	queueRedis := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	})
	defer queueRedis.Close()
	utils.StartHealthMonitor(ctx, []*redis.Client{cache, queueRedis}, dbPing)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))

	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		JWTSecret:         []byte(cfg.JWTSecret),
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
		Booking:           handlers.NewBookingHandler(bookingService),
		Settlement:        handlers.NewSettlementHandler(orchestrator),
		Device:            handlers.NewDeviceHandler(directory),
		Events:            handlers.NewEventsHandler(hub),
	})

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	worker.Shutdown()
	dispatcher.Stop()

	logger.Sugar().Info("main: server stopped gracefully")
}
