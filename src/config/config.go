package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string
	JWTSecret    string

	PriceSource          string
	PriceSourceBaseURL   string
	PriceRefreshInterval time.Duration
	PriceFetchTimeout    time.Duration
	PriceSourceRPS       float64

	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string

	ReportCacheTTL     time.Duration
	MaxUploadSizeBytes int64

	// Defaults applied to the valuation and tax summary when a user has not
	// stored their own values.
	DefaultNetWorthGoal float64
	ShortTermTaxRate    float64
	LongTermTaxRate     float64
}

var Cfg *AppConfig

const defaultJWTSecret = "change-me-this-is-an-insecure-default-jwt-secret-key"

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", defaultJWTSecret)
	if jwtSecret == defaultJWTSecret {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./cryptoquant.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		JWTSecret:    jwtSecret,

		PriceSource:          strings.ToLower(getEnv("PRICE_SOURCE", "kraken")),
		PriceSourceBaseURL:   getEnv("PRICE_SOURCE_BASE_URL", ""),
		PriceRefreshInterval: getEnvAsDuration("PRICE_REFRESH_INTERVAL", 5*time.Second),
		PriceFetchTimeout:    getEnvAsDuration("PRICE_FETCH_TIMEOUT", 10*time.Second),
		PriceSourceRPS:       getEnvAsFloat("PRICE_SOURCE_RPS", 1),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 30),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		ReportCacheTTL:     getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),
		MaxUploadSizeBytes: int64(getEnvAsInt("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024)),

		DefaultNetWorthGoal: getEnvAsFloat("DEFAULT_NET_WORTH_GOAL", 100000),
		ShortTermTaxRate:    getEnvAsFloat("SHORT_TERM_TAX_RATE", 0.30),
		LongTermTaxRate:     getEnvAsFloat("LONG_TERM_TAX_RATE", 0.15),
	}

	if Cfg.PriceRefreshInterval <= 0 {
		log.Printf("WARNING: PRICE_REFRESH_INTERVAL must be positive, got %s. Using default 5s.", Cfg.PriceRefreshInterval)
		Cfg.PriceRefreshInterval = 5 * time.Second
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, PriceSource=%s, RefreshInterval=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.PriceSource, Cfg.PriceRefreshInterval)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Float value for %s not set or empty, using default: %g", key, fallback)
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
