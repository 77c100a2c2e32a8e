package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the report submission service.
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Vision model configuration
	LLMProvider    string
	GeminiAPIKey   string
	GeminiModel    string
	AnalysisPrompt string

	// Auth configuration
	JWTSecret string

	// Object storage configuration
	StorageEndpoint       string
	StoragePublicEndpoint string
	StorageAccessKey      string
	StorageSecretKey      string
	StorageBucket         string
	StorageUseSSL         bool

	// RabbitMQ configuration
	RabbitMQHost       string
	RabbitMQPort       string
	RabbitMQUser       string
	RabbitMQPassword   string
	RabbitMQExchange   string
	RabbitMQRoutingKey string

	// Logging
	LogLevel string
}

const defaultAnalysisPrompt = `Analyze this urban infrastructure issue image. Provide:

1. Issue Type: Urban problem category (pothole, broken streetlight, sidewalk, graffiti, garbage dump, footpath encroachment etc.)
2. Confidence: Assessment confidence only percentage (0-100%)
3. Description: A description of visible issue
4. Severity: Give any one from Low/Medium/High, no description needed
5. Recommendations: Short actionable suggestions, one per line
`

// Load loads configuration from the environment, reading a .env file first
// when one is present. Defaults exist only for non-sensitive settings;
// credentials have no fallback and are checked by Validate.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "urbaneye"),

		Port: getEnv("PORT", "8080"),

		LLMProvider:    getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		AnalysisPrompt: getEnv("ANALYSIS_PROMPT", defaultAnalysisPrompt),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StorageEndpoint:       getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StoragePublicEndpoint: os.Getenv("STORAGE_PUBLIC_ENDPOINT"),
		StorageAccessKey:      os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey:      os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:         getEnv("STORAGE_BUCKET", "issue-images"),
		StorageUseSSL:         getBoolEnv("STORAGE_USE_SSL", false),

		RabbitMQHost:       getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:       getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:       getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword:   getEnv("RABBITMQ_PASSWORD", "guest"),
		RabbitMQExchange:   getEnv("RABBITMQ_EXCHANGE", "issue_reports"),
		RabbitMQRoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "report.submitted"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate fails fast on missing required settings instead of silently
// falling back to embedded defaults.
func (c *Config) Validate() error {
	var missing []string

	if c.DBPassword == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.StorageAccessKey == "" {
		missing = append(missing, "STORAGE_ACCESS_KEY")
	}
	if c.StorageSecretKey == "" {
		missing = append(missing, "STORAGE_SECRET_KEY")
	}
	if c.LLMProvider == "gemini" && c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.LLMProvider != "gemini" && c.LLMProvider != "stub" {
		return fmt.Errorf("unknown LLM_PROVIDER %q, expected gemini or stub", c.LLMProvider)
	}
	return nil
}

// GetAMQPURL builds the connection URL for the RabbitMQ publisher.
func (c *Config) GetAMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.RabbitMQUser, c.RabbitMQPassword, c.RabbitMQHost, c.RabbitMQPort)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
