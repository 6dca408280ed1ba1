// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, sourced from the environment with an
// optional .env file.
type Config struct {
	HTTPAddr     string
	ModelPath    string
	JWTSecret    string
	SessionTTLHr int
	MaxUploadMB  int

	DBDriver string
	DBDSN    string

	RedisAddr string
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		ModelPath:    getEnv("MODEL_PATH", "crop_disease_model.tflite"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		SessionTTLHr: getEnvInt("SESSION_TTL_HOURS", 24),
		MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", 16),
		DBDriver:     getEnv("DATABASE_DRIVER", "sqlite"),
		DBDSN:        getEnv("DATABASE_DSN", "users.db"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
	}
	return cfg
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is not set")
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.DBDriver)
	}
	return nil
}

// CacheEnabled reports whether a Redis history cache should be wired.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// MaxUploadBytes converts the upload limit to bytes for the HTTP layer.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
