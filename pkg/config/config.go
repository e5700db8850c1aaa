// Package config provides environment-driven configuration for CORSAIR.
package config

import (
	"os"
	"strings"
)

// Config holds process-wide CORSAIR configuration.
type Config struct {
	APIURL        string
	MappingDirs   []string
	MappingFiles  []string
	DatabaseURL   string
	AWSRegion     string
	LogLevel      string
	LogFormat     string
	KeyDir        string
	CoreDomains   []string
	WebhookHeader string
	OTELEnabled   bool
	OTLPEndpoint  string
	RedisURL      string
}

// Load reads configuration from the environment, applying the defaults
// named in the external-interfaces section of the specification.
func Load() *Config {
	return &Config{
		APIURL:        getenv("CORSAIR_API_URL", "https://api.corsair.local"),
		MappingDirs:   splitCSV(os.Getenv("CORSAIR_MAPPING_DIR")),
		MappingFiles:  splitCSV(os.Getenv("CORSAIR_MAPPING_FILE")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AWSRegion:     getenv("AWS_REGION", "us-east-1"),
		LogLevel:      getenv("CORSAIR_LOG_LEVEL", "INFO"),
		LogFormat:     getenv("CORSAIR_LOG_FORMAT", "json"),
		KeyDir:        getenv("CORSAIR_KEY_DIR", defaultKeyDir()),
		CoreDomains:   splitCSV(getenv("CORSAIR_CORE_DOMAINS", "corsair.io")),
		WebhookHeader: getenv("CORSAIR_WEBHOOK_HEADER", "X-Corsair-Signature"),
		OTELEnabled:   os.Getenv("CORSAIR_OTEL_ENABLED") == "true",
		OTLPEndpoint:  getenv("CORSAIR_OTLP_ENDPOINT", "localhost:4317"),
		RedisURL:      os.Getenv("CORSAIR_REDIS_URL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultKeyDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".corsair/keys"
	}
	return home + "/.corsair/keys"
}
