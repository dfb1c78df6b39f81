package job

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"appforge/pkg/agent/llm"
	"appforge/pkg/domain"
	"appforge/pkg/executor"
	"appforge/pkg/logx"
	"appforge/pkg/plan"
	"appforge/pkg/templates"
)

// Strategy names, recorded on the job document.
const (
	StrategyConstrained   = "constrained"
	StrategyUnconstrained = "unconstrained"
	StrategyStatic        = "static"
)

// GenContext carries everything a strategy needs to produce files.
type GenContext struct {
	WorkspaceDir string
	AppName      string
	Intent       string
	Plan         *plan.Plan
	Model        *domain.Model

	// OnFileWritten, if set, receives progress per file.
	OnFileWritten func(path string)
}

// StrategyResult is a tagged outcome: files produced, or an escalation
// to the next strategy. Escalation is data, not an error type.
type StrategyResult struct {
	Files    []string
	Escalate bool
	Reason   string
}

// Strategy is one rung of the generation ladder.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, gen *GenContext) *StrategyResult
}

func escalate(format string, args ...any) *StrategyResult {
	return &StrategyResult{Escalate: true, Reason: fmt.Sprintf(format, args...)}
}

// constrainedStrategy runs the plan-constrained executor.
type constrainedStrategy struct {
	client llm.Client
}

func (s *constrainedStrategy) Name() string { return StrategyConstrained }

func (s *constrainedStrategy) Generate(ctx context.Context, gen *GenContext) *StrategyResult {
	if s.client == nil {
		return escalate("no provider configured")
	}

	exec := executor.New(s.client)
	exec.OnFileWritten = gen.OnFileWritten

	brief := plan.RenderBrief(gen.Plan, gen.Model, gen.Intent)
	result, err := exec.Run(ctx, gen.WorkspaceDir, gen.Plan, brief)
	if err != nil {
		return escalate("constrained executor failed: %v", err)
	}
	if len(result.FilesWritten) == 0 {
		return escalate("constrained executor produced no files")
	}
	return &StrategyResult{Files: result.FilesWritten}
}

// unconstrainedStrategy makes a single provider call asking for the
// whole application as a JSON file list. No tool loop, no plan
// enforcement beyond path safety.
type unconstrainedStrategy struct {
	client llm.Client
	logger *logx.Logger
}

func (s *unconstrainedStrategy) Name() string { return StrategyUnconstrained }

const unconstrainedPrompt = `Generate the complete application described below as a single JSON array.
Each element must be {"path": "<relative file path>", "content": "<full file content>"}.
Respond with the JSON array only, no prose and no code fences.

%s`

func (s *unconstrainedStrategy) Generate(ctx context.Context, gen *GenContext) *StrategyResult {
	if s.client == nil {
		return escalate("no provider configured")
	}

	brief := plan.RenderBrief(gen.Plan, gen.Model, gen.Intent)
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewUserMessage(fmt.Sprintf(unconstrainedPrompt, brief)),
	})
	req.MaxTokens = 16384
	req.Temperature = llm.TemperatureDeterministic

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return escalate("unconstrained call failed: %v", err)
	}

	files, err := parseFileList(resp.Content)
	if err != nil {
		return escalate("unconstrained response not parseable: %v", err)
	}

	var written []string
	for _, file := range files {
		rel, ok := safeRelPath(file.Path)
		if !ok {
			s.logger.Warn("skipping unsafe path from provider: %s", file.Path)
			continue
		}
		dest := filepath.Join(gen.WorkspaceDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return escalate("failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(dest, []byte(file.Content), 0o644); err != nil {
			return escalate("failed to write %s: %v", rel, err)
		}
		written = append(written, rel)
		if gen.OnFileWritten != nil {
			gen.OnFileWritten(rel)
		}
	}
	if len(written) == 0 {
		return escalate("unconstrained call produced no usable files")
	}
	return &StrategyResult{Files: written}
}

type generatedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// parseFileList extracts the JSON array from a provider response,
// tolerating surrounding prose and code fences.
func parseFileList(content string) ([]generatedFile, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var files []generatedFile
	if err := json.Unmarshal([]byte(content[start:end+1]), &files); err != nil {
		return nil, fmt.Errorf("invalid file list: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("empty file list")
	}
	return files, nil
}

// safeRelPath normalizes a provider-supplied path and rejects escapes.
func safeRelPath(path string) (string, bool) {
	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == "." || clean == ".." ||
		strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}
	return clean, true
}

// StaticGenerator produces files without a provider. Implemented by
// templates.Generator; replaceable in tests.
type StaticGenerator interface {
	Generate(root, appName, intent string, model *domain.Model) ([]string, error)
}

// staticStrategy renders the embedded scaffold pack.
type staticStrategy struct {
	generator StaticGenerator
}

func (s *staticStrategy) Name() string { return StrategyStatic }

func (s *staticStrategy) Generate(_ context.Context, gen *GenContext) *StrategyResult {
	files, err := s.generator.Generate(gen.WorkspaceDir, gen.AppName, gen.Intent, gen.Model)
	if err != nil {
		return escalate("static generation failed: %v", err)
	}
	if len(files) == 0 {
		return escalate("static generation produced no files")
	}
	for _, path := range files {
		if gen.OnFileWritten != nil {
			gen.OnFileWritten(path)
		}
	}
	return &StrategyResult{Files: files}
}

// defaultStrategies builds the descending ladder.
func defaultStrategies(client llm.Client, static StaticGenerator) []Strategy {
	if static == nil {
		static = templates.NewGenerator()
	}
	return []Strategy{
		&constrainedStrategy{client: client},
		&unconstrainedStrategy{client: client, logger: logx.NewLogger("unconstrained")},
		&staticStrategy{generator: static},
	}
}
