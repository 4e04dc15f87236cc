package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все параметры запуска приложения.
type Config struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	EmbeddedDBPath  string
	MigrationsPath  string
	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Хранилище медиа.
	QuarantineRoot  string
	PublicMediaRoot string
	MaxUploadSizeMB int64

	// Лимиты конвейера безопасности.
	MaxUploadsPerDay   int
	StaleProcessingAge time.Duration
	ReconcileInterval  time.Duration

	AllowedOrigins  []string
	RateLimitLimit  int64
	RateLimitPeriod time.Duration
}

// SharedStoreConfigured возвращает true, если задан общий durable backend.
// Без него очередь жалоб работает в режиме локального embedded-хранилища:
// состояние не синхронизируется между устройствами (документированное
// ограничение режима, не дефект).
func (c *Config) SharedStoreConfigured() bool {
	return c.DatabaseURL != ""
}

// Load читает переменные окружения и возвращает готовую конфигурацию.
func Load() (*Config, error) {
	// Загружаем .env только если он существует, иначе используем системные переменные.
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("config: .env не найден, используем переменные окружения: %v", err)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:             env,
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		EmbeddedDBPath:  getEnv("EMBEDDED_DB_PATH", "./storage/spaces.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		QuarantineRoot:  getEnv("QUARANTINE_ROOT", "./storage/quarantine"),
		PublicMediaRoot: getEnv("PUBLIC_MEDIA_ROOT", "./storage/public"),
	}

	// Валидация JWT секретов
	jwtSecret := getEnv("JWT_SECRET", "")
	refreshSecret := getEnv("REFRESH_SECRET", "")

	if env == "production" {
		if len(jwtSecret) < 32 {
			return nil, fmt.Errorf("config: JWT_SECRET обязателен и должен быть не менее 32 символов в production")
		}
		if len(refreshSecret) < 32 {
			return nil, fmt.Errorf("config: REFRESH_SECRET обязателен и должен быть не менее 32 символов в production")
		}
		if cfg.DatabaseURL == "" {
			// В production embedded режим почти наверняка ошибка конфигурации.
			log.Printf("config: WARNING - DATABASE_URL не задан, очередь жалоб работает в локальном режиме")
		}
	} else {
		if jwtSecret == "" {
			jwtSecret = "super-secret-development-only-change-in-production"
			log.Printf("config: WARNING - используется дефолтный JWT_SECRET, измените в production!")
		}
		if refreshSecret == "" {
			refreshSecret = "super-refresh-secret-development-only-change-in-production"
			log.Printf("config: WARNING - используется дефолтный REFRESH_SECRET, измените в production!")
		}
	}

	cfg.JWTSecret = jwtSecret
	cfg.RefreshSecret = refreshSecret

	// CORS allowed origins
	originsStr := getEnv("CORS_ALLOWED_ORIGINS", "")
	if originsStr == "" {
		if env == "production" {
			return nil, fmt.Errorf("config: CORS_ALLOWED_ORIGINS обязателен в production")
		}
		cfg.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	} else {
		cfg.AllowedOrigins = strings.Split(originsStr, ",")
		for i, origin := range cfg.AllowedOrigins {
			cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	cfg.AccessTokenTTL = mustParseDuration(getEnv("ACCESS_TOKEN_TTL", "15m"))
	cfg.RefreshTokenTTL = mustParseDuration(getEnv("REFRESH_TOKEN_TTL", "720h"))
	cfg.MaxUploadSizeMB = mustParseInt64(getEnv("MAX_UPLOAD_MB", "100"))

	cfg.MaxUploadsPerDay = int(mustParseInt64(getEnv("MAX_UPLOADS_PER_DAY", "50")))
	if cfg.MaxUploadsPerDay <= 0 {
		return nil, fmt.Errorf("config: MAX_UPLOADS_PER_DAY должен быть положительным")
	}

	// Возраст, после которого осиротевшая запись processing считается протухшей,
	// и период фонового sweeper'а.
	cfg.StaleProcessingAge = mustParseDuration(getEnv("STALE_PROCESSING_AGE", "24h"))
	cfg.ReconcileInterval = mustParseDuration(getEnv("RECONCILE_INTERVAL", "1h"))

	// Rate limiting настройки
	cfg.RateLimitLimit = mustParseInt64(getEnv("RATE_LIMIT_LIMIT", "10"))
	cfg.RateLimitPeriod = mustParseDuration(getEnv("RATE_LIMIT_PERIOD", "1m"))

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или дефолт.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// mustParseDuration безопасно парсит строку в duration.
func mustParseDuration(v string) time.Duration {
	dur, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: не удалось распарсить длительность %q: %v", v, err)
	}
	return dur
}

// mustParseInt64 безопасно парсит строку в int64.
func mustParseInt64(v string) int64 {
	num, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("config: не удалось распарсить число %q: %v", v, err)
	}
	return num
}
