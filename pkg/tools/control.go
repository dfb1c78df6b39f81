package tools

import "context"

// CompleteTool terminates the executor loop successfully.
type CompleteTool struct{}

// NewCompleteTool creates the complete tool.
func NewCompleteTool() *CompleteTool {
	return &CompleteTool{}
}

// Name returns the tool name.
func (t *CompleteTool) Name() string {
	return ToolComplete
}

// Definition returns the tool definition for the provider.
func (t *CompleteTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolComplete,
		Description: "Signal that every planned file has been written and generation is finished.",
		InputSchema: InputSchema{Type: "object"},
	}
}

// Exec signals loop termination.
func (t *CompleteTool) Exec(_ context.Context, _ map[string]any) (*ExecResult, error) {
	return &ExecResult{Content: "Generation complete.", Done: true}, nil
}

// SpeakTool lets the provider narrate progress. It is acknowledged and
// changes no state.
type SpeakTool struct{}

// NewSpeakTool creates the speak tool.
func NewSpeakTool() *SpeakTool {
	return &SpeakTool{}
}

// Name returns the tool name.
func (t *SpeakTool) Name() string {
	return ToolSpeak
}

// Definition returns the tool definition for the provider.
func (t *SpeakTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolSpeak,
		Description: "Report progress or reasoning to the user. Has no effect on the workspace.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"message": {
					Type:        "string",
					Description: "Progress message to surface to the user",
				},
			},
			Required: []string{"message"},
		},
	}
}

// Exec acknowledges the message.
func (t *SpeakTool) Exec(_ context.Context, args map[string]any) (*ExecResult, error) {
	message, _ := args["message"].(string)
	if message == "" {
		message = "(empty message)"
	}
	return &ExecResult{Content: message}, nil
}
