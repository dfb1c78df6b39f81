package contextmgr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/pkg/agent/llm"
)

func TestMessagesPreservePinnedHead(t *testing.T) {
	m := NewManager(0,
		llm.NewSystemMessage("system"),
		llm.NewUserMessage("brief"),
	)
	m.Add(llm.NewAssistantMessage("working"))

	messages := m.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, "brief", messages[1].Content)
	assert.Equal(t, "working", messages[2].Content)
}

func TestNoCompactionUnderBudget(t *testing.T) {
	m := NewManager(100_000, llm.NewSystemMessage("system"))
	for i := 0; i < 20; i++ {
		m.Add(llm.NewUserMessage("short message"))
	}
	assert.False(t, m.CompactIfNeeded())
	assert.Equal(t, 20, m.TranscriptLen())
}

func TestCompactionDropsOldestKeepsTail(t *testing.T) {
	m := NewManager(500, llm.NewSystemMessage("system"))

	filler := strings.Repeat("content ", 50)
	for i := 0; i < 30; i++ {
		m.Add(llm.NewUserMessage(filler))
	}

	require.True(t, m.CompactIfNeeded())
	assert.Equal(t, keepTail, m.TranscriptLen())

	// The trim notice shows up right after the pinned head.
	messages := m.Messages()
	assert.Equal(t, "system", messages[0].Content)
	assert.Contains(t, messages[1].Content, "trimmed")
}

func TestCompactionNeverTouchesPinned(t *testing.T) {
	m := NewManager(10,
		llm.NewSystemMessage(strings.Repeat("system ", 100)),
		llm.NewUserMessage(strings.Repeat("brief ", 100)),
	)
	for i := 0; i < 12; i++ {
		m.Add(llm.NewUserMessage("turn"))
	}
	m.CompactIfNeeded()

	messages := m.Messages()
	assert.Contains(t, messages[0].Content, "system")
	assert.Contains(t, messages[1].Content, "brief")
	assert.Equal(t, keepTail, m.TranscriptLen())
}
