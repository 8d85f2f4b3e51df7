package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env  string
	Port string

	// Database
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	MigrationsPath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// HTTP
	CORSAllowedOrigins []string
	HTTPTimeout        time.Duration

	// Cache
	RedisURL string
	CacheTTL time.Duration

	// Pipeline (machine-to-machine writes, e.g. exchange rate sync)
	PipelineAPIKey     string
	APIURL             string
	RatesBaseCurrency  string
	RatesQuoteCurrency string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "nadlan"),
		DBPassword:     getEnv("DB_PASSWORD", "nadlan"),
		DBName:         getEnv("DB_NAME", "nadlan"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		RedisURL: getEnv("REDIS_URL", ""),

		PipelineAPIKey:     getEnv("PIPELINE_API_KEY", ""),
		APIURL:             getEnv("API_URL", "http://localhost:8080"),
		RatesBaseCurrency:  strings.ToUpper(getEnv("RATES_BASE_CURRENCY", "EUR")),
		RatesQuoteCurrency: strings.ToUpper(getEnv("RATES_QUOTE_CURRENCY", "ILS")),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 15*time.Minute)
	config.HTTPTimeout = getDuration("HTTP_TIMEOUT", 30*time.Second)
	config.CacheTTL = getDuration("CACHE_TTL", 5*time.Minute)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the global configuration. Intended for tests.
func Set(cfg *Config) {
	appConfig = cfg
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, fallback)
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
