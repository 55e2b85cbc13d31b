// Package openaicompat talks to any server exposing the OpenAI chat
// completions API: OpenAI itself, OpenRouter, and Ollama's /v1 endpoint.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vswrite/agentcore/internal/provider/model"
)

const requestTimeout = 5 * time.Minute

// Client is a provider backed by an OpenAI-compatible endpoint.
type Client struct {
	name         string
	baseURL      string
	apiKey       string
	modelName    string
	httpClient   *http.Client
	extraHeaders map[string]string
}

// New creates a Client. The name distinguishes backends sharing this
// wire format; openrouter gets its attribution headers here.
func New(name, baseURL, apiKey, modelName string) *Client {
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		modelName:  modelName,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	if name == "openrouter" {
		c.extraHeaders = map[string]string{
			"HTTP-Referer": "https://vswrite.app",
			"X-Title":      "VS Write",
		}
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Model() string {
	return c.modelName
}

// Generate sends one chat completion request and returns the response.
func (c *Client) Generate(ctx context.Context, req *model.GenerateRequest) (*model.GenerateResponse, error) {
	messages, err := toChatMessages(req.System, req.History)
	if err != nil {
		return nil, &model.ProviderError{
			Code:       model.ErrorCodeInvalidRequest,
			Message:    "failed to encode messages",
			Underlying: err,
		}
	}

	body := chatRequest{
		Model:    c.modelName,
		Messages: messages,
	}
	if tools := toChatTools(req.Tools); len(tools) > 0 {
		body.Tools = tools
		body.ToolChoice = "auto"
	}
	applyGenerateConfig(&body, c.modelName, req.Config)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &model.ProviderError{
			Code:       model.ErrorCodeInvalidRequest,
			Message:    "failed to encode request",
			Underlying: err,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &model.ProviderError{
			Code:       model.ErrorCodeInvalidRequest,
			Message:    "failed to build request",
			Underlying: err,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for key, value := range c.extraHeaders {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &model.ProviderError{
			Code:       model.ErrorCodeNetwork,
			Message:    "request failed",
			Underlying: err,
		}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &model.ProviderError{
			Code:       model.ErrorCodeNetwork,
			Message:    "failed to read response",
			Underlying: err,
		}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(httpResp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &model.ProviderError{
			Code:       model.ErrorCodeNetwork,
			Message:    "malformed response body",
			Underlying: err,
		}
	}

	out, err := fromChatResponse(&parsed, c.modelName)
	if err != nil {
		return nil, err
	}
	out.Metadata.LatencyMs = time.Since(start).Milliseconds()
	return out, nil
}

// mapHTTPError converts a non-2xx response into a ProviderError.
func mapHTTPError(status int, body []byte) error {
	message, code := parseErrorBody(body)
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &model.ProviderError{
			Code:    model.ErrorCodeAuth,
			Message: fmt.Sprintf("authentication failed: %s", message),
		}
	case status == http.StatusTooManyRequests:
		return &model.ProviderError{
			Code:    model.ErrorCodeRateLimit,
			Message: fmt.Sprintf("rate limit exceeded: %s", message),
		}
	case status == http.StatusBadRequest:
		if code == "context_length_exceeded" || strings.Contains(message, "maximum context length") {
			return &model.ProviderError{
				Code:    model.ErrorCodeContextLength,
				Message: message,
			}
		}
		return &model.ProviderError{
			Code:    model.ErrorCodeInvalidRequest,
			Message: fmt.Sprintf("invalid request: %s", message),
		}
	case status >= 500:
		return &model.ProviderError{
			Code:    model.ErrorCodeUnavailable,
			Message: fmt.Sprintf("service unavailable: %s", message),
		}
	default:
		return &model.ProviderError{
			Code:    model.ErrorCodeNetwork,
			Message: fmt.Sprintf("unexpected status %d: %s", status, message),
		}
	}
}

func parseErrorBody(body []byte) (message, code string) {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message == "" {
		return strings.TrimSpace(string(body)), ""
	}
	code, _ = parsed.Error.Code.(string)
	return parsed.Error.Message, code
}
