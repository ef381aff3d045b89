// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "your-secret-key"

type Config struct {
	Port           string `yaml:"port"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	DatabaseURL    string `yaml:"database_url"`
	MigrationsPath string `yaml:"migrations_path"`
	RedisURL       string `yaml:"redis_url"`

	// Permission cache TTL; zero disables caching even with Redis configured
	PermissionCacheTTL time.Duration `yaml:"permission_cache_ttl"`

	JWTSecret     string `yaml:"jwt_secret"`
	JWTExpiry     int    `yaml:"jwt_expiry"`     // hours
	RefreshExpiry int    `yaml:"refresh_expiry"` // days

	CORSOrigins        []string `yaml:"cors_origins"`
	AuthRateLimitRPS   float64  `yaml:"auth_rate_limit_rps"`
	AuthRateLimitBurst int      `yaml:"auth_rate_limit_burst"`

	DueReminderSchedule string `yaml:"due_reminder_schedule"`
	Seed                bool   `yaml:"seed"`

	// Email configuration
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	SMTPFrom     string `yaml:"smtp_from"`
	SMTPFromName string `yaml:"smtp_from_name"`
	SMTPUseTLS   bool   `yaml:"smtp_use_tls"`

	// Frontend URL for email links
	FrontendURL string `yaml:"frontend_url"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:                "8080",
		Environment:         "development",
		LogLevel:            "info",
		MigrationsPath:      "./internal/db/migrations",
		PermissionCacheTTL:  5 * time.Minute,
		JWTSecret:           defaultJWTSecret,
		JWTExpiry:           24,
		RefreshExpiry:       7,
		CORSOrigins:         []string{"http://localhost:3000"},
		AuthRateLimitRPS:    5,
		AuthRateLimitBurst:  10,
		DueReminderSchedule: "0 9 * * *",
		SMTPPort:            587,
		SMTPFrom:            "noreply@ora-projects.com",
		SMTPFromName:        "ORA Projects",
		FrontendURL:         "http://localhost:3000",
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("API_PORT", c.Port)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.MigrationsPath = getEnv("MIGRATIONS_PATH", c.MigrationsPath)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.PermissionCacheTTL = getEnvDuration("PERMISSION_CACHE_TTL", c.PermissionCacheTTL)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTExpiry = getEnvInt("JWT_EXPIRY", c.JWTExpiry)
	c.RefreshExpiry = getEnvInt("REFRESH_EXPIRY", c.RefreshExpiry)

	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	c.AuthRateLimitRPS = getEnvFloat("AUTH_RATE_LIMIT_RPS", c.AuthRateLimitRPS)
	c.AuthRateLimitBurst = getEnvInt("AUTH_RATE_LIMIT_BURST", c.AuthRateLimitBurst)

	c.DueReminderSchedule = getEnv("DUE_REMINDER_SCHEDULE", c.DueReminderSchedule)
	c.Seed = getEnvBool("SEED", c.Seed)

	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUser = getEnv("SMTP_USER", c.SMTPUser)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.SMTPFrom = getEnv("SMTP_FROM", c.SMTPFrom)
	c.SMTPFromName = getEnv("SMTP_FROM_NAME", c.SMTPFromName)
	c.SMTPUseTLS = getEnvBool("SMTP_USE_TLS", c.SMTPUseTLS)

	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("config: JWT_SECRET must be set in production")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("config: JWT_EXPIRY must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
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
