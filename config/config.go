package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	MongoURI    string
	MongoDBName string

	JWTSecret   string
	JWTLifetime time.Duration

	QuoteAPIURL  string
	QuoteAPIKey  string
	QuoteTimeout time.Duration

	SMTPHost  string
	SMTPPort  string
	EmailUser string
	EmailPass string

	AlertCheckInterval  time.Duration
	StreamPushInterval  time.Duration
	MaxStreamsPerClient int
}

var AppConfig *Config

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "stockwatch"),

		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),
		JWTLifetime: getEnvCount("JWT_LIFETIME_MINUTES", 60) * time.Minute,

		QuoteAPIURL:  getEnv("QUOTE_API_URL", "https://www.alphavantage.co"),
		QuoteAPIKey:  getEnv("ALPHA_VANTAGE_KEY", ""),
		QuoteTimeout: getEnvCount("QUOTE_TIMEOUT_SECONDS", 8) * time.Second,

		SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getEnv("SMTP_PORT", "587"),
		EmailUser: getEnv("EMAIL_USER", ""),
		EmailPass: getEnv("EMAIL_PASS", ""),

		AlertCheckInterval:  getEnvCount("ALERT_CHECK_INTERVAL_SECONDS", 60) * time.Second,
		StreamPushInterval:  getEnvCount("STREAM_PUSH_INTERVAL_SECONDS", 10) * time.Second,
		MaxStreamsPerClient: getEnvInt("MAX_STREAMS_PER_CLIENT", 20),
	}

	AppConfig = config
	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvCount gets a numeric environment variable as a unit count for durations
func getEnvCount(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue))
}
