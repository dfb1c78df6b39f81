package tools

import (
	"fmt"
	"sync"
)

// Registry manages the tools available to one executor run. Unlike a
// process-global registry, each job builds its own registry so the
// write constraint is scoped to that job's plan.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to this registry.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", name)
	}
	return tool, nil
}

// Definitions returns the provider-facing definitions of all
// registered tools, in stable name order per call site registration.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, name := range ExecutorTools {
		if tool, ok := r.tools[name]; ok {
			defs = append(defs, tool.Definition())
		}
	}
	// Any tools outside the standard set go last.
	for name, tool := range r.tools {
		if !isExecutorTool(name) {
			defs = append(defs, tool.Definition())
		}
	}
	return defs
}

func isExecutorTool(name string) bool {
	for _, n := range ExecutorTools {
		if n == name {
			return true
		}
	}
	return false
}
