// Package worker provides background job processing for RakshaMarg.
package worker

import (
	"os"
	"time"
)

// Config holds configuration for the SOS dispatch worker.
type Config struct {
	// ProjectID is the Pub/Sub project.
	ProjectID string

	// SubscriptionName is the SOS event subscription.
	SubscriptionName string

	// RelayURL is the emergency-services relay endpoint.
	RelayURL string

	// RelayTimeout bounds each relay call. Default: 10 seconds.
	RelayTimeout time.Duration
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	timeout, err := time.ParseDuration(getEnvOrDefault("DISPATCH_RELAY_TIMEOUT", "10s"))
	if err != nil {
		timeout = 10 * time.Second
	}

	return Config{
		ProjectID:        os.Getenv("PUBSUB_PROJECT_ID"),
		SubscriptionName: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "sos-dispatch"),
		RelayURL:         os.Getenv("DISPATCH_RELAY_URL"),
		RelayTimeout:     timeout,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
