package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/pkg/agent/llm"
	"appforge/pkg/limiter"
)

func TestLimitedClientForwardsUnderBudget(t *testing.T) {
	mock := NewMockClient(MockResponse{Response: llm.CompletionResponse{Content: "hello"}})
	client := NewLimitedClient(mock, limiter.New(1_000_000))

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")})
	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 1, mock.CallCount())
}

func TestLimitedClientBlocksWhenExhausted(t *testing.T) {
	mock := NewMockClient()
	rate := limiter.New(100)
	require.NoError(t, rate.Reserve(100))

	client := NewLimitedClient(mock, rate)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("hi")})
	_, err := client.Complete(ctx, req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, mock.CallCount(), "request must not reach the provider without headroom")
}

func TestLimitedClientModelNamePassesThrough(t *testing.T) {
	client := NewLimitedClient(NewMockClient(), limiter.New(0))
	assert.Equal(t, "mock", client.ModelName())
}
