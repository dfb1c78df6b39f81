// Package metrics queries aggregated provider usage from Prometheus.
package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// JobUsage is the aggregated provider usage for one generation job.
type JobUsage struct {
	JobID            string `json:"job_id"`
	Requests         int64  `json:"requests"`
	FailedRequests   int64  `json:"failed_requests"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// QueryService reads usage metrics back out of Prometheus.
type QueryService struct {
	queryAPI v1.API
}

// NewQueryService creates a query service against the given Prometheus
// server address.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{Address: prometheusURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &QueryService{queryAPI: v1.NewAPI(client)}, nil
}

// JobUsage retrieves aggregated request and token counts for a job,
// summed across all models the job used.
func (q *QueryService) JobUsage(ctx context.Context, jobID string) (*JobUsage, error) {
	usage := &JobUsage{JobID: jobID}

	requests, err := q.scalar(ctx, fmt.Sprintf(`sum(llm_requests_total{job_id=%q})`, jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	usage.Requests = requests

	failed, err := q.scalar(ctx, fmt.Sprintf(`sum(llm_requests_total{job_id=%q, status="error"})`, jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to query failed requests: %w", err)
	}
	usage.FailedRequests = failed

	prompt, err := q.scalar(ctx, fmt.Sprintf(`sum(llm_tokens_total{job_id=%q, type="prompt"})`, jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	usage.PromptTokens = prompt

	completion, err := q.scalar(ctx, fmt.Sprintf(`sum(llm_tokens_total{job_id=%q, type="completion"})`, jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}
	usage.CompletionTokens = completion

	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage, nil
}

// JobUsageByModel breaks a job's usage down per model, for jobs whose
// strategy ladder touched more than one provider.
func (q *QueryService) JobUsageByModel(ctx context.Context, jobID string) (map[string]*JobUsage, error) {
	modelsResult, _, err := q.queryAPI.Query(ctx,
		fmt.Sprintf(`group by (model) (llm_tokens_total{job_id=%q})`, jobID), time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}

	var models []string
	if vector, ok := modelsResult.(model.Vector); ok {
		for _, sample := range vector {
			if name, ok := sample.Metric["model"]; ok {
				models = append(models, string(name))
			}
		}
	}
	sort.Strings(models)

	result := make(map[string]*JobUsage, len(models))
	for _, modelName := range models {
		usage := &JobUsage{JobID: jobID}

		usage.Requests, err = q.scalar(ctx,
			fmt.Sprintf(`sum(llm_requests_total{job_id=%q, model=%q})`, jobID, modelName))
		if err != nil {
			return nil, fmt.Errorf("failed to query requests for model %s: %w", modelName, err)
		}
		usage.PromptTokens, err = q.scalar(ctx,
			fmt.Sprintf(`sum(llm_tokens_total{job_id=%q, model=%q, type="prompt"})`, jobID, modelName))
		if err != nil {
			return nil, fmt.Errorf("failed to query prompt tokens for model %s: %w", modelName, err)
		}
		usage.CompletionTokens, err = q.scalar(ctx,
			fmt.Sprintf(`sum(llm_tokens_total{job_id=%q, model=%q, type="completion"})`, jobID, modelName))
		if err != nil {
			return nil, fmt.Errorf("failed to query completion tokens for model %s: %w", modelName, err)
		}

		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		result[modelName] = usage
	}
	return result, nil
}

// scalar evaluates an instant query expected to yield a single sample.
// An empty result is zero, not an error: Prometheus drops series it
// never saw.
func (q *QueryService) scalar(ctx context.Context, query string) (int64, error) {
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return int64(vector[0].Value), nil
	}
	return 0, nil
}
