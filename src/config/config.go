package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Files
	UploadFolder       string
	ExportPath         string
	MaxUploadSizeBytes int64

	// HTTP
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	// Caching of trade lists and statistics
	CacheTTL time.Duration

	// Parser used by /api/parse-trade when the request names no source
	DefaultParserSource string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	Cfg = fromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, UploadFolder=%s, ExportPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.UploadFolder, Cfg.ExportPath)
}

func fromEnv() *AppConfig {
	maxUploadSizeBytes := getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024)
	if maxUploadSizeBytes <= 0 {
		log.Printf("WARNING: MAX_UPLOAD_SIZE_BYTES must be positive, got %d. Using default 10MB.", maxUploadSizeBytes)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	return &AppConfig{
		Port:         getEnv("PORT", "5000"),
		DatabasePath: getEnv("DATABASE_PATH", "./trades.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		UploadFolder:       getEnv("UPLOAD_FOLDER", "static/uploads"),
		ExportPath:         getEnv("EXPORT_PATH", "static/exports/trades_export.xlsx"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 30),

		CacheTTL: getEnvAsDuration("CACHE_TTL", 15*time.Minute),

		DefaultParserSource: getEnv("DEFAULT_PARSER_SOURCE", "xstation5"),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func lookupNonEmpty(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, exists && value != ""
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr, ok := lookupNonEmpty(key)
	if !ok {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, ok := lookupNonEmpty(key)
	if !ok {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr, ok := lookupNonEmpty(key)
	if !ok {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := lookupNonEmpty(key)
	if !ok {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList parses a comma-separated list, dropping empty entries.
func getEnvAsList(key string, fallback []string) []string {
	valueStr, ok := lookupNonEmpty(key)
	if !ok {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
