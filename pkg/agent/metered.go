package agent

import (
	"context"
	"time"

	"appforge/pkg/agent/llm"
	"appforge/pkg/agent/middleware/metrics"
	"appforge/pkg/utils"
)

// MeteredClient wraps an llm.Client and records request metrics.
// Token counts are estimated client-side so all providers report the
// same way regardless of what usage data they return.
type MeteredClient struct {
	client   llm.Client
	recorder metrics.Recorder
	counter  *utils.TokenCounter
	jobID    string
}

// NewMeteredClient wraps client with metrics recording labeled by job.
func NewMeteredClient(client llm.Client, recorder metrics.Recorder, jobID string) *MeteredClient {
	counter, err := utils.NewTokenCounter()
	if err != nil {
		counter = nil // CountTokens falls back to a character estimate
	}
	return &MeteredClient{
		client:   client,
		recorder: recorder,
		counter:  counter,
		jobID:    jobID,
	}
}

// Complete implements llm.Client, recording duration and token usage.
func (m *MeteredClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	start := time.Now()
	resp, err := m.client.Complete(ctx, req)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	m.recorder.ObserveRequest(m.client.ModelName(), m.jobID, status, duration)

	if err == nil {
		var promptTokens int
		for i := range req.Messages {
			promptTokens += m.counter.CountTokens(req.Messages[i].Content)
		}
		m.recorder.ObserveTokens(m.client.ModelName(), m.jobID, promptTokens, m.counter.CountTokens(resp.Content))
	}
	return resp, err
}

// ModelName returns the wrapped client's model identifier.
func (m *MeteredClient) ModelName() string {
	return m.client.ModelName()
}
