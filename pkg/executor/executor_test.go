package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/pkg/agent"
	"appforge/pkg/agent/llm"
	"appforge/pkg/domain"
	"appforge/pkg/plan"
	"appforge/pkg/translate"
)

func testPlan(t *testing.T) *plan.Plan {
	t.Helper()
	model := &domain.Model{
		Archetype: domain.ArchetypeWebApp,
		Entities: []domain.Entity{
			{Name: "note", Plural: "notes", Fields: []domain.Field{{Name: "id", Type: "string"}}},
		},
		Routes:    []domain.Route{{Method: "GET", Path: "/api/notes", Entity: "note"}},
		TechStack: []string{"express"},
	}
	arch := &translate.TranslatedArchitecture{
		Components: []translate.Component{
			{ID: "be", Kind: translate.KindBackend},
			{ID: "db", Kind: translate.KindDatabase},
		},
	}
	p, err := plan.Build("notes", model, arch)
	require.NoError(t, err)
	return p
}

func writeCall(path, content string) llm.ToolCall {
	return llm.ToolCall{
		ID:         "call-" + path,
		Name:       "write_file",
		Parameters: map[string]any{"path": path, "content": content},
	}
}

func completeCall() llm.ToolCall {
	return llm.ToolCall{ID: "call-done", Name: "complete", Parameters: map[string]any{}}
}

func toolTurn(calls ...llm.ToolCall) agent.MockResponse {
	return agent.MockResponse{Response: llm.CompletionResponse{ToolCalls: calls, StopReason: "tool_use"}}
}

func TestRunWritesPlannedFilesAndCompletes(t *testing.T) {
	dir := t.TempDir()
	client := agent.NewMockClient(
		toolTurn(writeCall("package.json", `{"name":"notes"}`)),
		toolTurn(writeCall("src/db.js", "// db"), writeCall("src/models/note.js", "// model")),
		toolTurn(completeCall()),
	)

	exec := New(client)
	result, err := exec.Run(context.Background(), dir, testPlan(t), "brief")
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, 3, result.Iterations)
	assert.Equal(t, []string{"package.json", "src/db.js", "src/models/note.js"}, result.FilesWritten)

	data, err := os.ReadFile(filepath.Join(dir, "src/models/note.js"))
	require.NoError(t, err)
	assert.Equal(t, "// model", string(data))
}

func TestRunRejectsOutOfPlanWriteAndContinues(t *testing.T) {
	dir := t.TempDir()
	client := agent.NewMockClient(
		toolTurn(writeCall("evil.sh", "rm -rf /")),
		toolTurn(writeCall("package.json", "{}")),
		toolTurn(completeCall()),
	)

	exec := New(client)
	result, err := exec.Run(context.Background(), dir, testPlan(t), "brief")
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, 1, result.Rejections)
	assert.NotContains(t, result.FilesWritten, "evil.sh")
	_, statErr := os.Stat(filepath.Join(dir, "evil.sh"))
	assert.True(t, os.IsNotExist(statErr))

	// Rejection feedback must reach the provider on the next turn.
	calls := client.Calls()
	require.GreaterOrEqual(t, len(calls), 2)
	last := calls[1].Messages[len(calls[1].Messages)-1]
	assert.Contains(t, last.Content, "REJECTED")
}

func TestRunIterationCapIsPartialNotError(t *testing.T) {
	dir := t.TempDir()
	// Script never calls complete; last response repeats.
	client := agent.NewMockClient(
		toolTurn(writeCall("package.json", "{}")),
	)

	exec := New(client)
	result, err := exec.Run(context.Background(), dir, testPlan(t), "brief")
	require.NoError(t, err)

	assert.False(t, result.Completed)
	assert.Equal(t, MaxIterations, result.Iterations)
	assert.NotEmpty(t, result.MissingFrom(testPlan(t)))
}

func TestRunStalledProviderFails(t *testing.T) {
	client := agent.NewMockClient(
		agent.MockResponse{Response: llm.CompletionResponse{Content: "I would write files now."}},
	)

	exec := New(client)
	_, err := exec.Run(context.Background(), t.TempDir(), testPlan(t), "brief")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped calling tools")
}

func TestRunUnknownToolFedBack(t *testing.T) {
	dir := t.TempDir()
	client := agent.NewMockClient(
		toolTurn(llm.ToolCall{ID: "x", Name: "run_shell", Parameters: map[string]any{}}),
		toolTurn(completeCall()),
	)

	exec := New(client)
	result, err := exec.Run(context.Background(), dir, testPlan(t), "brief")
	require.NoError(t, err)
	assert.True(t, result.Completed)

	calls := client.Calls()
	last := calls[1].Messages[len(calls[1].Messages)-1]
	assert.Contains(t, last.Content, "unknown tool")
}

func TestRunReportsProgressPerFile(t *testing.T) {
	dir := t.TempDir()
	client := agent.NewMockClient(
		toolTurn(writeCall("package.json", "{}"), writeCall("README.md", "# notes")),
		toolTurn(completeCall()),
	)

	var seen []string
	exec := New(client)
	exec.OnFileWritten = func(path string) { seen = append(seen, path) }

	_, err := exec.Run(context.Background(), dir, testPlan(t), "brief")
	require.NoError(t, err)
	assert.Equal(t, []string{"package.json", "README.md"}, seen)
}
