package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "TaskApp", "taskapp"},
		{"spaces to dashes", "My Recipe Box", "my-recipe-box"},
		{"collapses runs", "a  / b", "a-b"},
		{"trims edges", " weird name! ", "weird-name"},
		{"empty falls back", "!!!", "app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestNewJobIDUnique(t *testing.T) {
	assert.NotEqual(t, NewJobID(), NewJobID())
}
