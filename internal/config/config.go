// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
	RequestTimeout time.Duration
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	Type string // "mongo" or "memory"
	URI  string
	Name string
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// IntegrationsConfig holds credentials for outbound collaborators
type IntegrationsConfig struct {
	GeminiAPIKey string
	GeminiModel  string
	GithubToken  string
}

// ScraperConfig controls the opportunity scraper
type ScraperConfig struct {
	Enabled  bool
	URL      string
	Schedule string // cron expression
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Auth           *AuthConfig
	Integrations   *IntegrationsConfig
	Scraper        *ScraperConfig
	Log            *LogConfig
	AllowedOrigins []string
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           5000,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
		RequestTimeout: 10 * time.Second,
	}
}

// DefaultDatabaseConfig provides default database settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type: "mongo",
		Name: "nest",
	}
}

// DefaultScraperConfig provides default scraper settings
func DefaultScraperConfig() *ScraperConfig {
	return &ScraperConfig{
		Enabled:  true,
		URL:      "https://unstop.com/all-opportunities",
		Schedule: "0 */12 * * *",
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",       // Current directory
		"../../.env", // Project root when running from cmd/server
	}
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}

	serverConfig := DefaultConfig()

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		serverConfig.Port = port
	}

	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}

	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	timeout, err := getDurationOrDefault("REQUEST_TIMEOUT", serverConfig.RequestTimeout)
	if err != nil {
		return nil, err
	}
	serverConfig.RequestTimeout = timeout

	dbConfig := DefaultDatabaseConfig()
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		dbConfig.Type = strings.ToLower(dbType)
	}
	dbConfig.Name = getEnvOrDefault("MONGO_DB", dbConfig.Name)

	switch dbConfig.Type {
	case "mongo", "mongodb":
		dbConfig.Type = "mongo"
		dbConfig.URI = os.Getenv("MONGO_URI")
		if dbConfig.URI == "" {
			return nil, fmt.Errorf("MONGO_URI environment variable is required when DB_TYPE is mongo")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (want mongo or memory)", dbConfig.Type)
	}

	tokenTTL, err := getDurationOrDefault("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	authConfig := &AuthConfig{
		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  tokenTTL,
	}

	integrations := &IntegrationsConfig{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GithubToken:  os.Getenv("GITHUB_TOKEN"),
	}

	scraperConfig := DefaultScraperConfig()
	if enabled := os.Getenv("SCRAPER_ENABLED"); enabled != "" {
		scraperConfig.Enabled = enabled == "true"
	}
	scraperConfig.URL = getEnvOrDefault("SCRAPER_URL", scraperConfig.URL)
	scraperConfig.Schedule = getEnvOrDefault("SCRAPER_SCHEDULE", scraperConfig.Schedule)

	config := &Config{
		Server:       serverConfig,
		Database:     dbConfig,
		Auth:         authConfig,
		Integrations: integrations,
		Scraper:      scraperConfig,
		Log: &LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		AllowedOrigins: []string{"*"}, // Default to allow all origins
		Debug:          false,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
		if os.Getenv("LOG_LEVEL") == "" {
			config.Log.Level = "debug"
		}
	}

	return config, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
