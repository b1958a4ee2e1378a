// config.go loads runtime settings from the environment
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	DBDriver   string // sqlite or postgres
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMaxConns int

	JWTSecret string
	TokenTTL  time.Duration

	FrontendURL  string
	FrontendURL2 string

	PublicDir      string
	MaxUploadBytes int64

	CacheTTL time.Duration

	RevalidationURL    string
	RevalidationSecret string

	AdminEmail    string
	AdminPassword string

	LogLevel string
}

// LoadConfig reads the process environment. Call godotenv.Load first if a
// .env file should be honoured.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:               getenv("PORT", "8081"),
		DBDriver:           getenv("DB_DRIVER", "sqlite"),
		DBPath:             getenv("DB_PATH", "../database/portfolio.db"),
		DBHost:             getenv("DB_HOST", "localhost"),
		DBPort:             getenv("DB_PORT", "5432"),
		DBUser:             getenv("DB_USER", "postgres"),
		DBPassword:         getenv("DB_PASSWORD", ""),
		DBName:             getenv("DB_NAME", "porto_db"),
		DBSSLMode:          getenv("DB_SSLMODE", "disable"),
		JWTSecret:          getenv("JWT_SECRET", "secret_key"),
		FrontendURL:        os.Getenv("FRONTEND_URL"),
		FrontendURL2:       os.Getenv("FRONTEND_URL2"),
		PublicDir:          getenv("PUBLIC_DIR", "public"),
		RevalidationURL:    os.Getenv("NEXT_REVALIDATION_URL"),
		RevalidationSecret: os.Getenv("REVALIDATION_SECRET"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.DBMaxConns, err = getenvInt("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getenvDuration("TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	maxUploadMB, err := getenvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20

	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", cfg.DBMaxConns)
	}
	return cfg, nil
}

// PostgresDSN builds the connection string used when DBDriver is postgres.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
