// Package ollama provides the Ollama implementation of the llm.Client
// interface. Ollama is a local runtime for open-source models.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"appforge/pkg/agent/llm"
	"appforge/pkg/agent/llmerrors"
	"appforge/pkg/tools"
)

// Client wraps the Ollama API client to implement llm.Client.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates an Ollama client for the given host URL and model.
func NewClient(hostURL, model string) llm.Client {
	parsed, err := url.Parse(hostURL)
	if err != nil || hostURL == "" {
		parsed, _ = url.Parse("http://localhost:11434")
	}
	return &Client{
		client: api.NewClient(parsed, http.DefaultClient),
		model:  model,
	}
}

// Complete implements the llm.Client interface.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	messages := make([]api.Message, 0, len(in.Messages))
	for i := range in.Messages {
		messages = append(messages, api.Message{
			Role:    string(in.Messages[i].Role),
			Content: in.Messages[i].Content,
		})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": in.Temperature,
			"num_predict": in.MaxTokens,
		},
	}
	if len(in.Tools) > 0 {
		req.Tools = convertTools(in.Tools)
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}

	result := llm.CompletionResponse{Content: response.Message.Content}
	for i := range response.Message.ToolCalls {
		call := &response.Message.ToolCalls[i]
		params := make(map[string]any, call.Function.Arguments.Len())
		for k, v := range call.Function.Arguments.All() {
			params[k] = v
		}
		result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
			ID:         call.ID,
			Name:       call.Function.Name,
			Parameters: params,
		})
	}
	return result, nil
}

// ModelName returns the model identifier for this client.
func (c *Client) ModelName() string {
	return c.model
}

func convertTools(defs []tools.ToolDefinition) api.Tools {
	out := make(api.Tools, len(defs))
	for i := range defs {
		def := &defs[i]
		properties := api.NewToolPropertiesMap()
		for name, prop := range def.InputSchema.Properties {
			properties.Set(name, api.ToolProperty{
				Type:        api.PropertyType{prop.Type},
				Description: prop.Description,
			})
		}
		out[i] = api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        def.Name,
				Description: def.Description,
				Parameters: api.ToolFunctionParameters{
					Type:       def.InputSchema.Type,
					Properties: properties,
					Required:   def.InputSchema.Required,
				},
			},
		}
	}
	return out
}

func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "ollama server unreachable")
	case strings.Contains(msg, "not found"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, fmt.Sprintf("model unavailable: %v", err))
	default:
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "ollama API call failed")
	}
}
