package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// unsetenv removes a variable while keeping t.Setenv's restore on cleanup.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	unsetenv(t, EnvBaseURL)
	unsetenv(t, EnvProvider)
	unsetenv(t, EnvModel)

	cfg := Load()
	assert.Equal(t, "http://localhost:11434/v1", cfg.BaseURL)
	assert.Equal(t, "mistral:latest", cfg.Model)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "NA", cfg.APIKey)
}

func TestLoad_EmptyValuesPassThrough(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvModel, "")

	cfg := Load()
	assert.Empty(t, cfg.BaseURL)
	assert.Empty(t, cfg.Model)
}

func TestLoad_BaseURLOverride(t *testing.T) {
	t.Setenv(EnvBaseURL, "http://example:9999/v1")

	cfg := Load()
	assert.Equal(t, "http://example:9999/v1", cfg.BaseURL)
}

func TestLoad_ProviderAndModelOverride(t *testing.T) {
	t.Setenv(EnvProvider, "anthropic")
	t.Setenv(EnvModel, "claude-sonnet-4-20250514")

	cfg := Load()
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
}
