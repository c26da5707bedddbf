package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the dialer service configuration. It is loaded once in main and
// passed into the handler manager; request handling never reads process-wide
// mutable state (maintenance mode and dispatch limits live here so tests can
// exercise both states deterministically).
type Config struct {
	Port string

	// Vapi (external call provider) configuration
	VapiBaseURL       string
	VapiAPIKey        string
	VapiWebhookSecret string

	// Twilio configuration for BYO phone number verification
	TwilioAccountSID string
	TwilioAuthToken  string

	// Auth
	JWTSecret string

	// Dispatch configuration
	DispatchBatchSize    int
	DispatchCallsPerSec  float64
	DispatchBurst        int
	MaintenanceMode      bool
	ExternalCallTimeout  time.Duration
	InstanceID           string
	EnableCORS           bool
}

// LoadFromEnv loads the service configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Port: getEnvOrDefault("DIALER_PORT", "8080"),

		VapiBaseURL:       getEnvOrDefault("VAPI_BASE_URL", "https://api.vapi.ai"),
		VapiAPIKey:        getEnvOrDefault("VAPI_API_KEY", ""),
		VapiWebhookSecret: getEnvOrDefault("VAPI_WEBHOOK_SECRET", ""),

		TwilioAccountSID: getEnvOrDefault("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnvOrDefault("TWILIO_AUTH_TOKEN", ""),

		JWTSecret: getEnvOrDefault("JWT_SECRET", ""),

		DispatchBatchSize:   getEnvAsIntOrDefault("DISPATCH_BATCH_SIZE", 10),
		DispatchCallsPerSec: getEnvAsFloatOrDefault("DISPATCH_CALLS_PER_SEC", 1.0),
		DispatchBurst:       getEnvAsIntOrDefault("DISPATCH_BURST", 1),
		MaintenanceMode:     getEnvAsBoolOrDefault("MAINTENANCE_MODE", false),
		ExternalCallTimeout: time.Duration(getEnvAsIntOrDefault("EXTERNAL_CALL_TIMEOUT_SECONDS", 60)) * time.Second,
		InstanceID:          getInstanceID(),
		EnableCORS:          getEnvAsBoolOrDefault("ENABLE_CORS", true),
	}
}

func getInstanceID() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return "dialer-service"
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
