// Package spec defines the caller-supplied architecture specification:
// a component graph (nodes and edges) plus free-text intent describing
// what the generated application should do.
package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Node is a single component in the user-authored graph. Kind is
// optional; when absent the translator infers it from Attributes and
// Label.
type Node struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind,omitempty"`
	Label      string         `json:"label,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Edge is a directed connection between two nodes. Label optionally
// names the interaction ("stores data in", "calls", ...).
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// ArchitectureSpec is the immutable input to the generation pipeline.
type ArchitectureSpec struct {
	Nodes    []Node            `json:"nodes"`
	Edges    []Edge            `json:"edges"`
	Intent   string            `json:"intent,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Name returns the project name from metadata, or "app" if unset.
func (s *ArchitectureSpec) Name() string {
	if s.Metadata != nil {
		if name := strings.TrimSpace(s.Metadata["name"]); name != "" {
			return name
		}
	}
	return "app"
}

// NodeByID returns the node with the given id, or nil.
func (s *ArchitectureSpec) NodeByID(id string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// Parse decodes an ArchitectureSpec from JSON.
func Parse(data []byte) (*ArchitectureSpec, error) {
	var s ArchitectureSpec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse architecture spec: %w", err)
	}
	return &s, nil
}

// Load reads and decodes an ArchitectureSpec from a JSON file.
func Load(path string) (*ArchitectureSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file %s: %w", path, err)
	}
	return Parse(data)
}
