package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration values.
type Config struct {
	Secret        string
	DatabaseDSN   string
	CacheDSN      string
	RemoteBaseURL string
	HTTPPort      string
}

// Load reads configuration from environment variables with reasonable
// defaults. DatabaseDSN is the service's store; CacheDSN is the per-device
// mirror used by the hybrid client.
func Load() Config {
	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "dokanhisab.db"
	}

	cacheDSN := os.Getenv("CACHE_DSN")
	if cacheDSN == "" {
		cacheDSN = "dokanhisab-cache.db"
	}

	remote := os.Getenv("REMOTE_BASE_URL")
	if remote == "" {
		remote = "http://localhost:" + port
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	return Config{
		Secret:        secret,
		DatabaseDSN:   dsn,
		CacheDSN:      cacheDSN,
		RemoteBaseURL: remote,
		HTTPPort:      port,
	}
}
