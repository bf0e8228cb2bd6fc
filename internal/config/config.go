package config

import (
	"fmt"
	"log"
	"time"

	"story-server/internal/utils"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию для Story Service
type Config struct {
	// Настройки сервера
	Port     string `envconfig:"STORY_SERVER_PORT" default:"8083"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки Redis (кэш статистики историй)
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	StatsCacheTTL time.Duration `envconfig:"STATS_CACHE_TTL" default:"1m"`

	// Настройки RabbitMQ
	RabbitMQURL          string `envconfig:"RABBITMQ_URL" required:"true"`
	StoryEventsQueueName string `envconfig:"STORY_EVENTS_QUEUE_NAME" default:"story_events"`

	// Топ популярных выборов в статистике
	PopularChoicesLimit int `envconfig:"POPULAR_CHOICES_LIMIT" default:"5"`

	// Настройки JWT (для проверки токена пользователя в middleware)
	// Секретное поле БЕЗ envconfig тега
	JWTSecret string
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	// Пароль в c.DBPassword
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig() (*Config, error) {
	var cfg Config
	// Загружаем НЕсекретные переменные
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации story-server: %w", err)
	}

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты
	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	log.Printf("Конфигурация Story Service загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  DB Max Conns: %d", cfg.DBMaxConns)
	log.Printf("  Redis Addr: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
	log.Printf("  Stats Cache TTL: %v", cfg.StatsCacheTTL)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
	log.Printf("  Story Events Queue: %s", cfg.StoryEventsQueueName)
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}
