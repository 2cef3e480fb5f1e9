package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/auth"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/cache"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	middleware "github.com/nimeshabuddhika/resilient-ledger/pkg/middlewares"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/configs"
	_ "github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/docs"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/handlers"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const txRateLimitPrefix = "ledger:tx_rate"

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
// The cleanup func must run after the server has stopped accepting requests.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Ledger store
	dbConfig := database.Config{
		PrimaryDSN: cfg.PrimaryDbAddr,
		ReadDSNs:   []string{cfg.ReadDbAddr},
		MaxConns:   cfg.MaxDbCons,
		MinConns:   cfg.MinDbCons,
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){disconnect}
	fail := func(err error) (*http.Server, func(), error) {
		runClosers(closers)
		return nil, nil, err
	}

	if err = database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		return fail(err)
	}

	// Admission limiter; Redis makes the window global across replicas of the API.
	var redisClient *redis.Client
	if !utils.IsEmpty(cfg.RedisAddr) {
		client, closeRedis, err := cache.New(ctx, logger, cache.Config{Addr: cfg.RedisAddr})
		if err != nil {
			return fail(err)
		}
		redisClient = client
		closers = append(closers, closeRedis)
	}
	limiter := pkg.NewDistributedLimiter(redisClient, txRateLimitPrefix, cfg.TxRateLimitPerSec, cfg.TxRateLimitBurst, time.Second, logger)

	// Committed-ledger events
	var publisher services.EventPublisher = services.NewNoopEventPublisher(logger)
	if !utils.IsEmpty(cfg.KafkaBrokers) {
		kafkaPublisher, err := services.NewKafkaEventPublisher(ctx, logger, services.PublisherConfig{
			Brokers:    cfg.KafkaBrokers,
			Topic:      cfg.KafkaLedgerTopic,
			Partitions: cfg.KafkaPartition,
			Retries:    cfg.KafkaRetry,
			Retention:  cfg.KafkaLedgerRetention,
		})
		if err != nil {
			return fail(err)
		}
		publisher = kafkaPublisher
	}
	closers = append(closers, publisher.Close)

	userRepo := repositories.NewUserRepository()
	accountRepo := repositories.NewAccountRepository()
	accessRepo := repositories.NewAccessRepository()
	txRepo := repositories.NewTransactionRepository()
	clock := services.SystemClock()

	// Engine: one FIFO lane for requests, one due-time lane for interest.
	executor := services.NewLedgerExecutor(logger, services.ExecutorConfig{Timeout: cfg.ExecutionTimeout},
		db, accountRepo, accessRepo, txRepo, publisher)
	serializer := services.NewTransactionSerializer(logger, executor)

	accruer := services.NewInterestAccruer(logger, services.AccruerConfig{
		Rate:    decimal.NewFromFloat(cfg.InterestRate),
		Timeout: cfg.ExecutionTimeout,
	}, db, accountRepo, txRepo, publisher)
	scheduler := services.NewInterestScheduler(logger, services.SchedulerConfig{Period: cfg.CompoundingPeriod}, accruer, clock)
	if cfg.RestoreAccrualOnStart {
		accounts, err := accountRepo.ListActiveTimeDeposits(ctx, db, clock.Now())
		if err != nil {
			return fail(fmt.Errorf("failed to restore accrual schedule: %w", err))
		}
		scheduler.Restore(accounts)
	}
	stopScheduler := scheduler.Start(ctx)
	// Closers run in reverse: drain requests, stop accrual, then release publisher and pools.
	closers = append(closers, stopScheduler, serializer.Close)

	tokens := auth.NewTokenManager(cfg.JwtSecret, cfg.JwtTTL)
	accountService := services.NewAccountService(logger, services.AccountConfig{
		PinHashCost:       cfg.PinHashCost,
		CompoundingPeriod: cfg.CompoundingPeriod,
	}, db, accountRepo, accessRepo, txRepo, scheduler, clock)
	accessService := services.NewAccessService(logger, db, accountRepo, accessRepo, userRepo)
	authService := services.NewAuthService(logger, db, userRepo, tokens, cfg.PinHashCost)

	baseHandler := handlers.NewBaseHandler(logger, db)
	authHandler := handlers.NewAuthHandler(logger, authService)
	accountHandler := handlers.NewAccountHandler(logger, accountService)
	accessHandler := handlers.NewAccessHandler(logger, accessService)
	transactionHandler := handlers.NewTransactionHandler(logger, serializer)

	// Router
	r := gin.Default()

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.TraceID())
	api.Use(middleware.Metrics())

	authn := middleware.Authenticate(logger, tokens)
	authHandler.RegisterRoutes(api, authn)

	protected := api.Group("", authn)
	accountHandler.RegisterRoutes(protected)
	accessHandler.RegisterRoutes(protected)
	transactionHandler.RegisterRoutes(protected, middleware.RateLimit(logger, limiter))
	baseHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	cleanup := func() {
		runClosers(closers)
	}
	return srv, cleanup, nil
}

// runClosers releases resources in reverse acquisition order.
func runClosers(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
