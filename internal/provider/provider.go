package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/vswrite/agentcore/internal/config"
	"github.com/vswrite/agentcore/internal/provider/gemini"
	"github.com/vswrite/agentcore/internal/provider/model"
	"github.com/vswrite/agentcore/internal/provider/openaicompat"
)

// Provider is the interface to a language model backend.
type Provider interface {
	// Generate sends one request and returns the model's response.
	Generate(ctx context.Context, req *model.GenerateRequest) (*model.GenerateResponse, error)

	// Name identifies the backend for logs and session records.
	Name() string

	// Model returns the model in use, after defaulting.
	Model() string
}

// DefaultModels maps each backend to the model used when none is configured.
var DefaultModels = map[string]string{
	"openai":     "gpt-5-mini",
	"gemini":     "gemini-2.5-flash",
	"ollama":     "llama3.2",
	"openrouter": "openai/gpt-4o-mini",
}

// UnknownProviderError is returned for a backend name outside the
// supported set.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Name)
}

func (e *UnknownProviderError) InvalidInput() bool {
	return true
}

// New builds the configured Provider. The API key may be empty for
// ollama; the other backends reject requests without one.
func New(ctx context.Context, cfg *config.Config, apiKey string) (Provider, error) {
	modelName := cfg.Provider.Model
	if modelName == "" {
		modelName = DefaultModels[cfg.Provider.Name]
	}

	switch cfg.Provider.Name {
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, err
		}
		return gemini.New(gemini.NewRealGeminiClient(client), modelName), nil
	case "openai":
		return openaicompat.New("openai", cfg.Provider.OpenAIBaseURL, apiKey, modelName), nil
	case "openrouter":
		return openaicompat.New("openrouter", cfg.Provider.OpenRouterBaseURL, apiKey, modelName), nil
	case "ollama":
		return openaicompat.New("ollama", cfg.Provider.OllamaBaseURL, apiKey, modelName), nil
	default:
		return nil, &UnknownProviderError{Name: cfg.Provider.Name}
	}
}
