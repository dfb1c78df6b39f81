package agent

import (
	"context"
	"math"
	"time"

	"appforge/pkg/agent/llm"
	"appforge/pkg/agent/llmerrors"
	"appforge/pkg/logx"
)

// RetryableClient wraps an llm.Client with classified retry logic:
// the backoff schedule depends on the error type reported by the
// underlying provider.
type RetryableClient struct {
	client llm.Client
	logger *logx.Logger
}

// NewRetryableClient wraps client with retry behavior.
func NewRetryableClient(client llm.Client) *RetryableClient {
	return &RetryableClient{
		client: client,
		logger: logx.NewLogger("llm-retry"),
	}
}

// Complete implements llm.Client with per-error-type retries.
func (r *RetryableClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		resp, err := r.client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		errType := llmerrors.TypeOf(err)
		cfg := llmerrors.DefaultRetryConfigs[errType]
		if attempt >= cfg.MaxRetries {
			return llm.CompletionResponse{}, lastErr
		}

		delay := backoffDelay(&cfg, attempt)
		r.logger.Warn("provider call failed (%s), retry %d/%d in %s: %v",
			errType, attempt+1, cfg.MaxRetries, delay, err)

		select {
		case <-ctx.Done():
			return llm.CompletionResponse{}, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// ModelName returns the wrapped client's model identifier.
func (r *RetryableClient) ModelName() string {
	return r.client.ModelName()
}

func backoffDelay(cfg *llmerrors.RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if max := float64(cfg.MaxDelay); delay > max {
		delay = max
	}
	return time.Duration(delay)
}
