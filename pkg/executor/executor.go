// Package executor runs the plan-constrained generation loop: the
// provider is handed a file plan and a small tool set, and iterates
// until it signals completion or hits the iteration cap. The write
// tool enforces the plan; the executor enforces the budget.
package executor

import (
	"context"
	"fmt"
	"strings"

	"appforge/pkg/agent/llm"
	"appforge/pkg/contextmgr"
	"appforge/pkg/logx"
	"appforge/pkg/plan"
	"appforge/pkg/tools"
)

const (
	// MaxIterations bounds the generation loop. Each iteration is one
	// provider round trip.
	MaxIterations = 24

	// maxStalledTurns is how many consecutive responses without a tool
	// call are tolerated before the run is abandoned.
	maxStalledTurns = 3

	// contextBudget caps the conversation size in tokens. Older turns
	// are trimmed once generation history outgrows it.
	contextBudget = 48_000
)

const systemPrompt = `You are a code generator producing a complete, runnable web application.
You work only through the provided tools. Write every file listed in the plan, one write_file call per file, then call complete.
Rules:
- write_file accepts only planned paths; a REJECTED response means pick a path from the plan instead.
- Produce full file contents, never placeholders or elided sections.
- Files are plain JavaScript/JSX unless the plan says otherwise.
- Call complete only after every planned file is written.`

// Result summarizes one executor run.
type Result struct {
	// FilesWritten holds workspace-relative paths, in write order,
	// deduplicated on rewrite.
	FilesWritten []string

	// Completed is true when the provider called complete, false when
	// the iteration cap ended the run.
	Completed bool

	Iterations int
	Rejections int
}

// MissingFrom returns planned paths the run never wrote.
func (r *Result) MissingFrom(p *plan.Plan) []string {
	written := make(map[string]struct{}, len(r.FilesWritten))
	for _, path := range r.FilesWritten {
		written[path] = struct{}{}
	}
	var missing []string
	for _, path := range p.Paths() {
		if _, ok := written[path]; !ok {
			missing = append(missing, path)
		}
	}
	return missing
}

// Executor drives the constrained generation loop.
type Executor struct {
	client        llm.Client
	logger        *logx.Logger
	maxIterations int

	// OnFileWritten, if set, is called after each successful write.
	OnFileWritten func(path string)
}

// New creates an executor around a provider client.
func New(client llm.Client) *Executor {
	return &Executor{
		client:        client,
		logger:        logx.NewLogger("executor"),
		maxIterations: MaxIterations,
	}
}

// Run executes the plan in the given workspace. It returns an error
// only for infrastructure failures (provider errors after retries,
// disk errors, a stalled provider); exhausting the iteration cap is a
// partial result, not an error.
func (e *Executor) Run(ctx context.Context, workspaceRoot string, p *plan.Plan, brief string) (*Result, error) {
	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		tools.NewWriteFileTool(workspaceRoot, p.Paths()),
		tools.NewReadFileTool(workspaceRoot),
		tools.NewListFilesTool(workspaceRoot),
		tools.NewCompleteTool(),
		tools.NewSpeakTool(),
	} {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("failed to register tool: %w", err)
		}
	}

	history := contextmgr.NewManager(contextBudget,
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage(brief),
	)

	result := &Result{}
	written := make(map[string]struct{})
	stalled := 0

	for result.Iterations < e.maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation canceled: %w", err)
		}
		result.Iterations++

		if history.CompactIfNeeded() {
			e.logger.Debug("trimmed conversation to %d tokens", history.TokenCount())
		}
		req := llm.NewCompletionRequest(history.Messages())
		req.Tools = registry.Definitions()
		req.Temperature = llm.TemperatureDeterministic

		resp, err := e.client.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("provider call failed on iteration %d: %w", result.Iterations, err)
		}

		if len(resp.ToolCalls) == 0 {
			stalled++
			if stalled >= maxStalledTurns {
				return nil, fmt.Errorf("provider stopped calling tools after %d iterations", result.Iterations)
			}
			history.Add(llm.NewAssistantMessage(resp.Content))
			history.Add(llm.NewUserMessage("Respond by calling one of the provided tools. Write the next planned file, or call complete if all files exist."))
			continue
		}
		stalled = 0

		if resp.Content != "" {
			history.Add(llm.NewAssistantMessage(resp.Content))
		}

		var feedback []string
		done := false
		for _, call := range resp.ToolCalls {
			outcome, execErr := e.dispatch(ctx, registry, call)
			if execErr != nil {
				return nil, execErr
			}
			feedback = append(feedback, fmt.Sprintf("[%s] %s", call.Name, outcome.Content))
			if outcome.Rejected {
				result.Rejections++
			}
			if outcome.WrotePath != "" {
				if _, seen := written[outcome.WrotePath]; !seen {
					written[outcome.WrotePath] = struct{}{}
					result.FilesWritten = append(result.FilesWritten, outcome.WrotePath)
				}
				if e.OnFileWritten != nil {
					e.OnFileWritten(outcome.WrotePath)
				}
			}
			if outcome.Done {
				done = true
			}
		}

		if done {
			result.Completed = true
			e.logger.Info("generation complete after %d iterations, %d files", result.Iterations, len(result.FilesWritten))
			return result, nil
		}
		history.Add(llm.NewUserMessage(strings.Join(feedback, "\n")))
	}

	e.logger.Warn("iteration cap reached with %d files written", len(result.FilesWritten))
	return result, nil
}

// dispatch resolves and executes one tool call. Unknown tool names are
// fed back to the provider rather than failing the run.
func (e *Executor) dispatch(ctx context.Context, registry *tools.Registry, call llm.ToolCall) (*tools.ExecResult, error) {
	tool, err := registry.Get(call.Name)
	if err != nil {
		e.logger.Warn("unknown tool requested: %s", call.Name)
		return &tools.ExecResult{
			Rejected: true,
			Content:  fmt.Sprintf("REJECTED: unknown tool %q; available tools are %s.", call.Name, strings.Join(tools.ExecutorTools, ", ")),
		}, nil
	}

	outcome, err := tool.Exec(ctx, call.Parameters)
	if err != nil {
		// Bad arguments are the provider's fault and recoverable;
		// anything from write_file touching disk is not.
		if call.Name == tools.ToolWriteFile && strings.Contains(err.Error(), "failed to") {
			return nil, fmt.Errorf("tool %s failed: %w", call.Name, err)
		}
		return &tools.ExecResult{
			Rejected: true,
			Content:  fmt.Sprintf("REJECTED: %v", err),
		}, nil
	}
	return outcome, nil
}
