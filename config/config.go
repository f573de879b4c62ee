package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	KratosURL          string        // Kratos Frontend API URL (port 4433)
	Port               string        // Service port
	CacheTTL           time.Duration // Ephemeral cache TTL (profile reads)
	SessionIdleTTL     time.Duration // Idle TTL before a viewer's store is evicted
	IdentityPoll       time.Duration // Whoami polling interval for change detection
	ViewerTokenSecret  string        // Secret for signing viewer JWT tokens
	ViewerTokenIssuer  string        // JWT issuer claim
	ViewerTokenAud     string        // JWT audience claim
	ViewerTokenTTL     time.Duration // JWT token TTL
	RateLimitPerSecond float64       // Per-IP request rate on session endpoints
	RateLimitBurst     int           // Per-IP burst on session endpoints
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		KratosURL:          getEnv("KRATOS_URL", "http://kratos:4433"),
		Port:               getEnv("PORT", "8990"),
		CacheTTL:           15 * time.Minute,
		SessionIdleTTL:     30 * time.Minute,
		IdentityPoll:       30 * time.Second,
		ViewerTokenSecret:  getEnv("VIEWER_TOKEN_SECRET", ""),
		ViewerTokenIssuer:  getEnv("VIEWER_TOKEN_ISSUER", "session-hub"),
		ViewerTokenAud:     getEnv("VIEWER_TOKEN_AUDIENCE", "platform-backend"),
		ViewerTokenTTL:     5 * time.Minute,
		RateLimitPerSecond: 10,
		RateLimitBurst:     20,
	}

	for _, d := range []struct {
		env  string
		dest *time.Duration
	}{
		{"CACHE_TTL", &config.CacheTTL},
		{"SESSION_IDLE_TTL", &config.SessionIdleTTL},
		{"IDENTITY_POLL_INTERVAL", &config.IdentityPoll},
		{"VIEWER_TOKEN_TTL", &config.ViewerTokenTTL},
	} {
		if raw := os.Getenv(d.env); raw != "" {
			duration, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s format: %w", d.env, err)
			}
			*d.dest = duration
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.KratosURL == "" {
		return fmt.Errorf("KRATOS_URL cannot be empty")
	}

	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	if c.IdentityPoll <= 0 {
		return fmt.Errorf("IDENTITY_POLL_INTERVAL must be positive")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
