package openaicompat

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	orchmodel "github.com/vswrite/agentcore/internal/orchestrator/model"
	"github.com/vswrite/agentcore/internal/provider/model"
)

var oSeriesPattern = regexp.MustCompile(`^o\d`)

// isReasoningModel reports whether the model rejects sampling parameters
// and takes max_completion_tokens instead of max_tokens. Covers the
// o-series and gpt-5 families, with or without a vendor prefix.
func isReasoningModel(modelName string) bool {
	family := modelName
	if i := strings.LastIndex(family, "/"); i >= 0 {
		family = family[i+1:]
	}
	return oSeriesPattern.MatchString(family) || strings.HasPrefix(family, "gpt-5")
}

// toChatMessages flattens the system prompt and conversation history
// into the wire message list. Each tool result becomes its own tool
// role message keyed by tool_call_id.
func toChatMessages(system string, history []orchmodel.Message) ([]chatMessage, error) {
	messages := make([]chatMessage, 0, len(history)+1)

	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}

	for _, msg := range history {
		switch {
		case len(msg.ToolResults) > 0:
			for _, result := range msg.ToolResults {
				content := result.Content
				if result.Error != "" {
					content = fmt.Sprintf("Error: %s", result.Error)
				}
				messages = append(messages, chatMessage{
					Role:       "tool",
					Content:    content,
					ToolCallID: result.CallID,
				})
			}
		case len(msg.ToolCalls) > 0:
			calls := make([]chatToolCall, 0, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				args, err := json.Marshal(call.Args)
				if err != nil {
					return nil, fmt.Errorf("encoding arguments for tool %s: %w", call.Name, err)
				}
				calls = append(calls, chatToolCall{
					ID:   call.ID,
					Type: "function",
					Function: chatFunction{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			messages = append(messages, chatMessage{
				Role:      "assistant",
				Content:   msg.Content,
				ToolCalls: calls,
			})
		default:
			role := msg.Role
			if role == "" {
				role = "user"
			}
			messages = append(messages, chatMessage{Role: role, Content: msg.Content})
		}
	}

	return messages, nil
}

func toChatTools(tools []model.ToolDefinition) []chatTool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]chatTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, chatTool{
			Type: "function",
			Function: chatToolDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return out
}

// applyGenerateConfig sets sampling and limit parameters on the request.
func applyGenerateConfig(body *chatRequest, modelName string, config *model.GenerateConfig) {
	if config == nil {
		return
	}

	reasoning := isReasoningModel(modelName)

	if !reasoning {
		if config.Temperature != nil {
			body.Temperature = config.Temperature
		}
		if config.TopP != nil {
			body.TopP = config.TopP
		}
	}
	if config.MaxOutputTokens != nil {
		if reasoning {
			body.MaxCompletionTokens = config.MaxOutputTokens
		} else {
			body.MaxTokens = config.MaxOutputTokens
		}
	}
	if len(config.StopSequences) > 0 {
		body.Stop = config.StopSequences
	}
}

// fromChatResponse converts a wire response to internal format.
func fromChatResponse(resp *chatResponse, modelUsed string) (*model.GenerateResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, &model.ProviderError{
			Code:    model.ErrorCodeInvalidRequest,
			Message: "no choices in response",
		}
	}

	choice := resp.Choices[0]

	metadata := model.ResponseMetadata{ModelUsed: modelUsed}
	if resp.Usage != nil {
		metadata.PromptTokens = resp.Usage.PromptTokens
		metadata.CompletionTokens = resp.Usage.CompletionTokens
		metadata.TotalTokens = resp.Usage.TotalTokens
	}

	if choice.FinishReason == "content_filter" {
		return &model.GenerateResponse{
			Content: model.ResponseContent{
				Type:          model.ResponseTypeRefusal,
				RefusalReason: "content blocked by provider filter",
			},
			Metadata: metadata,
		}, nil
	}

	if len(choice.Message.ToolCalls) > 0 {
		toolCalls := make([]orchmodel.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, call := range choice.Message.ToolCalls {
			args := map[string]any{}
			if call.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					return nil, &model.ProviderError{
						Code:       model.ErrorCodeInvalidRequest,
						Message:    fmt.Sprintf("malformed arguments for tool %s", call.Function.Name),
						Underlying: err,
					}
				}
			}
			toolCalls = append(toolCalls, orchmodel.ToolCall{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: args,
			})
		}
		return &model.GenerateResponse{
			Content: model.ResponseContent{
				Type:      model.ResponseTypeToolCall,
				ToolCalls: toolCalls,
			},
			Metadata: metadata,
		}, nil
	}

	return &model.GenerateResponse{
		Content: model.ResponseContent{
			Type: model.ResponseTypeText,
			Text: string(choice.Message.Content),
		},
		Metadata: metadata,
	}, nil
}
