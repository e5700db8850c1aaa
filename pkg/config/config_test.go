package config_test

import (
	"testing"

	"github.com/corsair-io/corsair/pkg/config"
	"github.com/stretchr/testify/assert"
)

// TestLoad_Defaults verifies that Load() returns sensible defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CORSAIR_API_URL", "")
	t.Setenv("CORSAIR_MAPPING_DIR", "")
	t.Setenv("CORSAIR_LOG_LEVEL", "")
	t.Setenv("CORSAIR_CORE_DOMAINS", "")
	t.Setenv("DATABASE_URL", "")

	cfg := config.Load()

	assert.Equal(t, "https://api.corsair.local", cfg.APIURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.MappingDirs)
	assert.Equal(t, []string{"corsair.io"}, cfg.CoreDomains)
}

// TestLoad_Overrides verifies that environment variables correctly
// override default values, including CSV-splitting of list-valued vars.
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CORSAIR_API_URL", "https://api.example.com")
	t.Setenv("CORSAIR_MAPPING_DIR", "/etc/corsair/mappings, /opt/mappings")
	t.Setenv("CORSAIR_LOG_LEVEL", "DEBUG")
	t.Setenv("CORSAIR_CORE_DOMAINS", "corsair.io,issuer.example.com")
	t.Setenv("DATABASE_URL", "postgres://prod:5432/corsair")

	cfg := config.Load()

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, []string{"/etc/corsair/mappings", "/opt/mappings"}, cfg.MappingDirs)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, []string{"corsair.io", "issuer.example.com"}, cfg.CoreDomains)
	assert.Equal(t, "postgres://prod:5432/corsair", cfg.DatabaseURL)
}
