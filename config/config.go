package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration; empty RedisAddr disables the rate limiter
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string

	// Media storage; empty bucket disables S3 uploads
	S3Bucket string

	// TTF font used by the shopping-list export
	ExportFontPath string
}

// LoadConfig builds a Config from environment variables, falling back to
// Docker secrets for sensitive values outside of CI.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8000"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "foodgram"),
		DBName:         getEnv("DB_NAME", "foodgram"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisDB:        0,
		S3Bucket:       getEnv("S3_BUCKET_NAME", ""),
		ExportFontPath: getEnv("EXPORT_FONT_PATH", "FreeSans.ttf"),
	}

	// Sensitive values come from environment variables in CI and from
	// Docker secrets everywhere else.
	if env == CI {
		cfg.DBPassword = os.Getenv("DB_PASSWORD")
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	} else {
		cfg.DBPassword = envOrSecret("DB_PASSWORD", "db_password")
		cfg.JWTSecret = envOrSecret("JWT_SECRET", "jwt_secret")
		cfg.RedisPassword = envOrSecret("REDIS_PASSWORD", "redis_password")
	}

	if err := cfg.validate(env); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate(env Environment) error {
	if env == Production {
		var missing []string
		if c.DBPassword == "" {
			missing = append(missing, "DB_PASSWORD")
		}
		if c.JWTSecret == "" {
			missing = append(missing, "JWT_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("required settings are not set: %s", strings.Join(missing, ", "))
		}
	}
	if c.JWTSecret == "" {
		// Fallback so a bare development checkout starts.
		c.JWTSecret = "development-secret"
	}
	return nil
}

func getEnv(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envOrSecret prefers the environment variable and falls back to a Docker
// secret file of the given name.
func envOrSecret(envName, secretName string) string {
	if value := os.Getenv(envName); value != "" {
		return value
	}
	return readSecret(secretName)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
