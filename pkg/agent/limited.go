package agent

import (
	"context"

	"appforge/pkg/agent/llm"
	"appforge/pkg/limiter"
	"appforge/pkg/utils"
)

// LimitedClient wraps an llm.Client behind a token-bucket rate limit.
// Requests block until the estimated prompt cost fits the budget.
type LimitedClient struct {
	client  llm.Client
	limiter *limiter.Limiter
	counter *utils.TokenCounter
}

// NewLimitedClient wraps client with the given limiter.
func NewLimitedClient(client llm.Client, l *limiter.Limiter) *LimitedClient {
	counter, err := utils.NewTokenCounter()
	if err != nil {
		counter = nil // CountTokens falls back to a character estimate
	}
	return &LimitedClient{client: client, limiter: l, counter: counter}
}

// Complete implements llm.Client, waiting for rate-limit headroom
// before forwarding the request.
func (c *LimitedClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	cost := req.MaxTokens
	for i := range req.Messages {
		cost += c.counter.CountTokens(req.Messages[i].Content)
	}
	if err := c.limiter.Wait(ctx, cost); err != nil {
		return llm.CompletionResponse{}, err
	}
	return c.client.Complete(ctx, req)
}

// ModelName returns the wrapped client's model identifier.
func (c *LimitedClient) ModelName() string {
	return c.client.ModelName()
}
