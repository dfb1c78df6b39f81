// Package tools provides the tool surface exposed to language model
// providers during constrained generation. Each job builds its own
// registry so write permissions never leak between jobs.
package tools

import "context"

// Property describes a single parameter in a tool's input schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// InputSchema is the JSON-schema shaped parameter declaration sent to
// providers.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is the provider-facing description of a tool.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// ExecResult is the outcome of one tool invocation. Content is always
// fed back to the provider verbatim.
type ExecResult struct {
	Content string

	// WrotePath is the workspace-relative path written, set only by
	// write_file on success.
	WrotePath string

	// Rejected marks a refused operation, such as an out-of-plan
	// write. Rejections are feedback, not errors.
	Rejected bool

	// Done signals the executor loop to stop.
	Done bool
}

// Tool is one callable capability exposed to the provider.
type Tool interface {
	// Name returns the tool's registered name.
	Name() string

	// Definition returns the provider-facing definition.
	Definition() ToolDefinition

	// Exec runs the tool. Errors are infrastructure failures;
	// domain-level refusals come back as a Rejected result.
	Exec(ctx context.Context, args map[string]any) (*ExecResult, error)
}
