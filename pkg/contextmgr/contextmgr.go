// Package contextmgr bounds a provider conversation to a token
// budget. Pinned messages (system prompt, generation brief) always
// survive; when the transcript outgrows the budget, the oldest turns
// are dropped and replaced with a single trim notice.
package contextmgr

import (
	"fmt"

	"appforge/pkg/agent/llm"
	"appforge/pkg/utils"
)

// keepTail is how many recent transcript messages compaction always
// preserves. The provider needs the latest tool feedback to continue.
const keepTail = 8

// Manager accumulates a conversation and compacts it on demand.
type Manager struct {
	counter    *utils.TokenCounter
	pinned     []llm.CompletionMessage
	transcript []llm.CompletionMessage
	maxTokens  int
	trimmed    int
}

// NewManager creates a manager with the given token budget. The pinned
// messages are never compacted away.
func NewManager(maxTokens int, pinned ...llm.CompletionMessage) *Manager {
	counter, err := utils.NewTokenCounter()
	if err != nil {
		counter = nil // CountTokens falls back to a character estimate
	}
	return &Manager{
		counter:   counter,
		pinned:    append([]llm.CompletionMessage(nil), pinned...),
		maxTokens: maxTokens,
	}
}

// Add appends a message to the transcript.
func (m *Manager) Add(msg llm.CompletionMessage) {
	m.transcript = append(m.transcript, msg)
}

// Messages returns the full conversation: pinned head, trim notice if
// any compaction happened, then the transcript.
func (m *Manager) Messages() []llm.CompletionMessage {
	out := make([]llm.CompletionMessage, 0, len(m.pinned)+len(m.transcript)+1)
	out = append(out, m.pinned...)
	if m.trimmed > 0 {
		out = append(out, llm.NewUserMessage(
			fmt.Sprintf("[%d earlier messages trimmed to fit the context budget; files already written remain on disk]", m.trimmed)))
	}
	return append(out, m.transcript...)
}

// TokenCount estimates the token size of the current conversation.
func (m *Manager) TokenCount() int {
	total := 0
	for _, msg := range m.Messages() {
		total += m.counter.CountTokens(msg.Content)
	}
	return total
}

// CompactIfNeeded drops the oldest transcript messages while the
// conversation is over budget, always keeping the most recent turns.
// It reports whether anything was dropped.
func (m *Manager) CompactIfNeeded() bool {
	if m.maxTokens <= 0 {
		return false
	}

	compacted := false
	for m.TokenCount() > m.maxTokens && len(m.transcript) > keepTail {
		m.transcript = m.transcript[1:]
		m.trimmed++
		compacted = true
	}
	return compacted
}

// TranscriptLen returns the number of unpinned messages.
func (m *Manager) TranscriptLen() int {
	return len(m.transcript)
}
