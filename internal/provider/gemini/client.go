package gemini

import (
	"context"

	"google.golang.org/genai"
)

// GeminiClient is the slice of the SDK surface the provider calls.
// The indirection keeps tests off the network.
type GeminiClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// RealGeminiClient wraps the official SDK client to satisfy GeminiClient.
type RealGeminiClient struct {
	client *genai.Client
}

func NewRealGeminiClient(client *genai.Client) *RealGeminiClient {
	if client == nil {
		panic("client is required")
	}
	return &RealGeminiClient{client: client}
}

func (c *RealGeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}
