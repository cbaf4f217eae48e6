package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/billing-service/internal/api/rest"
	"github.com/Dhoini/billing-service/internal/api/rest/handlers"
	"github.com/Dhoini/billing-service/internal/config"
	"github.com/Dhoini/billing-service/internal/db"
	"github.com/Dhoini/billing-service/internal/integration/stripe"
	"github.com/Dhoini/billing-service/internal/kafka"
	"github.com/Dhoini/billing-service/internal/metrics"
	"github.com/Dhoini/billing-service/internal/middleware"
	"github.com/Dhoini/billing-service/internal/repository"
	"github.com/Dhoini/billing-service/internal/service"
	"github.com/Dhoini/billing-service/internal/statuscache"
	"github.com/Dhoini/billing-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log := initLogger()

	log.Infow("Billing service starting up...")

	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("Invalid configuration", "error", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warnw("JWT secret is not set, authenticated endpoints will reject all requests")
	}

	// Устанавливаем режим Gin в зависимости от окружения
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Подключаемся к базе данных
	dbClient, err := db.NewClient(cfg.Database.DSN, log)
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Errorw("Error closing database connection", "error", err)
		}
	}()
	log.Infow("Database connection established")

	// Инициализируем Redis кеш
	redisCache, err := repository.NewRedisCacheRepository(
		cfg.Redis.Addr,
		cfg.Redis.Password,
		cfg.Redis.DB,
		log,
	)
	if err != nil {
		// Не фатально, но предупреждаем
		log.Warnw("Failed to initialize Redis cache, continuing without caching", "error", err)
	} else {
		log.Infow("Redis cache initialized successfully")
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Errorw("Error closing Redis connection", "error", err)
			}
		}()
	}

	// Инициализируем репозитории
	baseSubsRepo := repository.NewPostgresSubscriptionRepository(dbClient.DB(), log)
	var subsRepo repository.SubscriptionRepository
	if redisCache != nil {
		subsRepo = repository.NewCachedSubscriptionRepository(baseSubsRepo, redisCache, log)
		log.Infow("Using cached subscription repository")
	} else {
		subsRepo = baseSubsRepo
		log.Infow("Using non-cached subscription repository")
	}
	userRepo := repository.NewPostgresUserRepository(dbClient.DB(), log)

	// Инициализируем клиент Stripe и верификатор вебхуков
	stripeClient := stripe.NewClient(stripe.Config{
		APIKey:  cfg.Stripe.APIKey,
		PriceID: cfg.Stripe.PriceID,
		BaseURL: cfg.App.BaseURL,
	}, log)
	webhookVerifier := stripe.NewWebhookVerifier(cfg.Stripe.WebhookSecret, log)

	// Инициализируем Kafka Producer
	var kafkaProducer kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureKafkaTopics(cfg.Kafka.Brokers, log); err != nil {
			log.Warnw("Failed to ensure Kafka topics", "error", err)
		}
		kafkaProducer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Errorw("Failed to initialize Kafka producer, continuing without event publishing", "error", err)
			kafkaProducer = nil
		} else {
			log.Infow("Kafka producer initialized")
			defer kafkaProducer.Close()
		}
	} else {
		log.Warnw("No Kafka brokers configured, event publishing disabled")
	}

	// Метрики
	registry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(registry, log)

	// Инициализируем service layer
	statusService := service.NewStatusService(subsRepo, stripeClient, billingMetrics, log)
	statusCache := statuscache.New(statusService, log)
	checkoutService := service.NewCheckoutService(stripeClient, subsRepo, cfg.App.BaseURL, billingMetrics, log)
	syncService := service.NewSyncService(subsRepo, userRepo, stripeClient, billingMetrics, log)
	reconcilerService := service.NewReconcilerService(subsRepo, userRepo, stripeClient, kafkaProducer, statusCache, billingMetrics, log)

	// JWT middleware
	validator := &middleware.DefaultTokenValidator{
		Secret: []byte(cfg.Auth.JWTSecret),
	}
	authMiddleware := middleware.NewJWTMiddleware(log, validator)

	// Роутер и HTTP сервер
	router := rest.SetupRouter(log, registry, rest.Handlers{
		Checkout:     handlers.NewCheckoutHandler(checkoutService, statusCache, log),
		Subscription: handlers.NewSubscriptionHandler(statusCache, syncService, log),
		Webhook:      handlers.NewWebhookHandler(webhookVerifier, reconcilerService, log),
		Auth:         authMiddleware,
	})
	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalw("Failed to start HTTP server", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("Shutdown signal received")

	// Даем 10 секунд на завершение текущих запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Infow("HTTP server gracefully stopped")
	}

	log.Infow("Cleanup finished. Goodbye!")
}

// initLogger инициализирует новый логгер
func initLogger() *logger.Logger {
	logLevel := logger.INFO
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = logger.DEBUG
	}
	return logger.New(logLevel)
}
