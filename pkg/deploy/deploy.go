// Package deploy triggers downstream deployment of a pushed
// repository. The trigger is fire-and-acknowledge: generation has
// already succeeded by the time deploy runs, so failures here degrade
// to warnings rather than failing the job.
package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"appforge/pkg/logx"
)

const requestTimeout = 15 * time.Second

// Request is the payload posted to the deploy hook.
type Request struct {
	AppName string `json:"app_name"`
	RepoURL string `json:"repo_url"`
	Commit  string `json:"commit,omitempty"`
}

// Response is the hook's acknowledgement. LiveURL is optional; hooks
// that deploy asynchronously return only an id.
type Response struct {
	DeployID string `json:"deploy_id,omitempty"`
	LiveURL  string `json:"live_url,omitempty"`
}

// Trigger posts deploy requests to a webhook endpoint.
type Trigger struct {
	endpoint string
	client   *http.Client
	logger   *logx.Logger
}

// NewTrigger creates a trigger for the given endpoint. An empty
// endpoint disables deployment; Fire becomes a no-op.
func NewTrigger(endpoint string) *Trigger {
	return &Trigger{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   logx.NewLogger("deploy"),
	}
}

// Enabled reports whether a deploy endpoint is configured.
func (t *Trigger) Enabled() bool {
	return t.endpoint != ""
}

// Fire posts the deploy request and returns the acknowledgement.
func (t *Trigger) Fire(ctx context.Context, req Request) (*Response, error) {
	if !t.Enabled() {
		return &Response{}, nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deploy request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build deploy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deploy hook unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("deploy hook returned %d: %s", resp.StatusCode, string(payload))
	}

	var ack Response
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		// A 2xx with an unparseable body still means the deploy was
		// accepted.
		t.logger.Debug("deploy hook response not parseable: %v", err)
		return &Response{}, nil
	}
	t.logger.Info("deploy triggered for %s (id=%s)", req.AppName, ack.DeployID)
	return &ack, nil
}
