package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	DBDSN       string
	HTTPAddr    string
	AMQPURL     string

	MigrationsPath string

	// Интервалы фоновых задач
	SweepInterval    time.Duration
	DispatchInterval time.Duration

	// Пороги sweep-задачи
	StalePendingAfter time.Duration
	NoShowGrace       time.Duration

	// Параметры диспетчера уведомлений
	DispatchBatchSize   int
	DispatchMaxAttempts int
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:    os.Getenv("ENV"),
		DBDSN:          os.Getenv("DB_DSN"),
		HTTPAddr:       os.Getenv("HTTP_ADDR"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	var err error
	if cfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.DispatchInterval, err = durationEnv("DISPATCH_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.StalePendingAfter, err = durationEnv("STALE_PENDING_AFTER", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.NoShowGrace, err = durationEnv("NO_SHOW_GRACE", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DispatchBatchSize, err = intEnv("DISPATCH_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.DispatchMaxAttempts, err = intEnv("DISPATCH_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

// durationEnv читает duration из переменной окружения или возвращает дефолт
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

// intEnv читает int из переменной окружения или возвращает дефолт
func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return n, nil
}
