package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"story-server/internal/config"
	"story-server/internal/database"
	"story-server/internal/handler"
	appLogger "story-server/internal/logger"
	appMiddleware "story-server/internal/middleware"
	"story-server/internal/messaging"
	"story-server/internal/repository"
	"story-server/internal/service"
	"story-server/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск Story Service...")

	// Загружаем конфиг ДО инициализации логгера
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err) // Стандартный логгер, т.к. zap еще нет
	}

	// --- Инициализация логгера ---
	logger, err := appLogger.New(appLogger.Config{
		Level: cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer logger.Sync() // Flush буфера логгера при выходе
	logger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// Подключение к PostgreSQL
	dbPool, err := setupDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()
	logger.Info("Успешное подключение к PostgreSQL")

	// Применяем миграции
	migrator := database.NewMigrator(migrations.FS, ".", dbPool, logger)
	if err := migrator.Up(); err != nil {
		logger.Fatal("Не удалось применить миграции", zap.Error(err))
	}

	// Подключение к Redis (кэш статистики)
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Успешное подключение к Redis")

	// Подключение к RabbitMQ
	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()
	logger.Info("Успешное подключение к RabbitMQ")

	eventPublisher, err := messaging.NewRabbitMQStoryEventPublisher(rabbitConn, cfg.StoryEventsQueueName)
	if err != nil {
		logger.Fatal("Не удалось создать StoryEventPublisher", zap.Error(err))
	}

	// Инициализация зависимостей
	txManager := repository.NewTransactionHelper(dbPool, logger)
	storyRepo := repository.NewPgStoryRepository(logger)
	progressRepo := repository.NewPgProgressRepository(logger)
	userRepo := repository.NewPgUserRepository(logger)
	statsCache := repository.NewRedisStatsCache(redisClient, logger)

	storyService := service.NewStoryService(
		dbPool,
		txManager,
		storyRepo,
		progressRepo,
		userRepo,
		statsCache,
		eventPublisher,
		logger,
		service.Options{
			StatsCacheTTL:       cfg.StatsCacheTTL,
			PopularChoicesLimit: cfg.PopularChoicesLimit,
		},
	)
	storyHandler := handler.NewStoryHandler(storyService, logger, cfg.JWTSecret)

	// Настройка Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(appMiddleware.EchoZapLogger(logger))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Метрики Prometheus
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Регистрация маршрутов
	storyHandler.RegisterRoutes(e)

	// Запуск сервера
	go func() {
		logger.Info("Story сервер слушает", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Сервер остановился с ошибкой", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Получен сигнал остановки, завершаем работу...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Ошибка при остановке сервера", zap.Error(err))
	}
	logger.Info("Story Service остановлен")
}

// setupDatabase создает пул соединений pgx с настройками из конфига.
func setupDatabase(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула соединений: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка проверки соединения с БД: %w", err)
	}
	return pool, nil
}

// connectRabbitMQ подключается к RabbitMQ с несколькими попытками:
// брокер может подниматься дольше сервиса.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("RabbitMQ недоступен, повторная попытка",
			zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("не удалось подключиться к RabbitMQ: %w", err)
}
