package config

import (
	"fmt"
	"os"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string
	// SessionSecret signs portal session tokens. Required for the API server.
	SessionSecret string
	// SnapshotBucket is the S3 bucket holding detection snapshots. Presigned
	// snapshot URLs are disabled when empty.
	SnapshotBucket    string
	SnapshotEndpoint  string
	SnapshotRegion    string
	SnapshotAccessKey string
	SnapshotSecretKey string
	SnapshotURLTTLSec int
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServiceName:       getEnv("SERVICE_NAME", "portal-api"),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SnapshotBucket:    getEnv("SNAPSHOT_BUCKET", ""),
		SnapshotEndpoint:  getEnv("SNAPSHOT_ENDPOINT", ""),
		SnapshotRegion:    getEnv("SNAPSHOT_REGION", "us-east-1"),
		SnapshotAccessKey: getEnv("SNAPSHOT_ACCESS_KEY", ""),
		SnapshotSecretKey: getEnv("SNAPSHOT_SECRET_KEY", ""),
		SnapshotURLTTLSec: 900,
	}

	return cfg, nil
}

// Validate checks that the fields required by the given service role are set.
func (c *Config) Validate(service string) error {
	switch service {
	case "portal-api":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
