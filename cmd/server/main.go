package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/stokly/fulfillment-service/config"
	"github.com/stokly/fulfillment-service/internal/httpapi"
	"github.com/stokly/fulfillment-service/internal/logistics"
	"github.com/stokly/fulfillment-service/pkg/broker"
	"github.com/stokly/fulfillment-service/pkg/cache"
	"github.com/stokly/fulfillment-service/pkg/logger"
	"github.com/stokly/fulfillment-service/pkg/postgres"

	couponRepoPkg "github.com/stokly/fulfillment-service/internal/coupon/repository"
	couponUCPkg "github.com/stokly/fulfillment-service/internal/coupon/usecase"

	invRepoPkg "github.com/stokly/fulfillment-service/internal/inventory/repository"
	invUCPkg "github.com/stokly/fulfillment-service/internal/inventory/usecase"

	lotRepoPkg "github.com/stokly/fulfillment-service/internal/lot/repository"
	lotUCPkg "github.com/stokly/fulfillment-service/internal/lot/usecase"

	orderRepoPkg "github.com/stokly/fulfillment-service/internal/order/repository"
	orderUCPkg "github.com/stokly/fulfillment-service/internal/order/usecase"

	returnsRepoPkg "github.com/stokly/fulfillment-service/internal/returns/repository"
	returnsUCPkg "github.com/stokly/fulfillment-service/internal/returns/usecase"

	skuRepoPkg "github.com/stokly/fulfillment-service/internal/sku/repository"

	dispatcherPkg "github.com/stokly/fulfillment-service/internal/logistics/dispatcher"
	gatewayPkg "github.com/stokly/fulfillment-service/internal/logistics/gateway"
	outboxRepoPkg "github.com/stokly/fulfillment-service/internal/outbox/repository"
	outboxWorkerPkg "github.com/stokly/fulfillment-service/internal/outbox/worker"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.Config{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.New(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.New(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to PostgreSQL", zap.String("db_name", cfg.Postgres.DBName))

	txManager := postgres.NewTxManager(db)

	// 4. Initialize Redis lock
	var locker cache.Locker = cache.NopLocker{}
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
		locker = redisClient
	}

	// 5. Initialize Kafka
	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer kafkaProducer.Close()

	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)

	// 6. Initialize Repositories
	invRepo := invRepoPkg.NewPGRepository(db)
	lotRepo := lotRepoPkg.NewPGRepository(db)
	skuRepo := skuRepoPkg.NewPGRepository(db)
	couponRepo := couponRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	returnsRepo := returnsRepoPkg.NewPGRepository(db)
	outboxRepo := outboxRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	ledgerUC := invUCPkg.NewLedgerUseCase(invRepo, txManager, locker, appLogger)
	lotUC := lotUCPkg.NewLotUseCase(lotRepo, ledgerUC, txManager, appLogger)
	couponUC := couponUCPkg.NewCouponUseCase(couponRepo, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, skuRepo, couponUC, ledgerUC, outboxRepo, txManager, appLogger)
	returnsUC := returnsUCPkg.NewReturnUseCase(returnsRepo, orderRepo, ledgerUC, outboxRepo, txManager, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 8. Start outbox worker
	worker := outboxWorkerPkg.New(outboxRepo, kafkaProducer, appLogger, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)
	go worker.Start(ctx)

	// 9. Start shipment dispatcher
	var carrier logistics.Gateway = gatewayPkg.NewNopGateway()
	if cfg.Logistics.Enabled {
		carrier = gatewayPkg.NewHTTPGateway(&gatewayPkg.Config{
			BaseURL: cfg.Logistics.BaseURL,
			APIKey:  cfg.Logistics.APIKey,
			Timeout: cfg.Logistics.Timeout,
		})
	}
	dispatcher := dispatcherPkg.New(kafkaConsumer, carrier, orderRepo, appLogger)
	go func() {
		if err := dispatcher.Run(ctx); err != nil {
			appLogger.Error("shipment dispatcher exited", zap.Error(err))
		}
	}()

	// 10. Start HTTP server
	api := httpapi.New(ledgerUC, lotUC, orderUC, returnsUC, skuRepo, appLogger)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		appLogger.Info("starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown", zap.Error(err))
	}
	appLogger.Info("server stopped")
}
