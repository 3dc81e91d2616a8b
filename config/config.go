// Package config loads LLM backend connection parameters. Configuration is
// resolved once at startup and passed explicitly; no package reads the
// environment after Load returns.
package config

import "os"

// Defaults for a local Ollama backend speaking the OpenAI-compatible API.
const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "mistral:latest"

	// Ollama does not enforce authentication but the client requires a
	// non-empty credential.
	PlaceholderAPIKey = "NA"
)

// Environment variables honored by Load.
const (
	EnvBaseURL  = "OLLAMA_BASE_URL"
	EnvProvider = "GROUPPLAN_PROVIDER"
	EnvModel    = "GROUPPLAN_MODEL"
)

// Config carries the resolved LLM backend parameters.
type Config struct {
	// Provider selects the model adapter: "openai" (default, also used for
	// Ollama) or "anthropic".
	Provider string

	// BaseURL is the backend endpoint. Ignored by the anthropic provider.
	BaseURL string

	// Model is the model identifier requested from the backend.
	Model string

	// APIKey is the credential handed to the client.
	APIKey string
}

// Load reads the environment once and returns an immutable configuration
// value. Unset variables fall back to local-Ollama defaults; set variables
// are taken verbatim, including empty values. There are no error conditions.
func Load() Config {
	return Config{
		Provider: getenv(EnvProvider, "openai"),
		BaseURL:  getenv(EnvBaseURL, DefaultBaseURL),
		Model:    getenv(EnvModel, DefaultModel),
		APIKey:   PlaceholderAPIKey,
	}
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
