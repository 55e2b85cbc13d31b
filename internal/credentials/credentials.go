// Package credentials resolves provider API keys from the
// environment. Keys are never written to config files or logs; the
// environment is the only source.
package credentials

import (
	"fmt"
	"os"
	"strings"
)

// envVars maps provider names to the environment variable holding the
// API key. Ollama runs locally and needs none.
var envVars = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"ollama":     "",
}

// MissingError names the environment variable the user has to set.
type MissingError struct {
	Provider string
	EnvVar   string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("no API key for provider %q: set %s", e.Provider, e.EnvVar)
}

func (e *MissingError) NotFound() bool { return true }

// EnvVar returns the environment variable a provider reads its key
// from, and whether the provider needs one at all.
func EnvVar(provider string) (string, bool) {
	name, ok := envVars[strings.ToLower(provider)]
	return name, ok && name != ""
}

// APIKey resolves the key for a provider. Providers that need no key
// return an empty string with no error.
func APIKey(provider string) (string, error) {
	name, ok := envVars[strings.ToLower(provider)]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", provider)
	}
	if name == "" {
		return "", nil
	}
	key := strings.TrimSpace(os.Getenv(name))
	if key == "" {
		return "", &MissingError{Provider: provider, EnvVar: name}
	}
	return key, nil
}
