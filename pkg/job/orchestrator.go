package job

import (
	"context"
	"encoding/json"
	"fmt"

	"appforge/pkg/agent/llm"
	"appforge/pkg/critic"
	"appforge/pkg/deploy"
	"appforge/pkg/domain"
	"appforge/pkg/events"
	"appforge/pkg/forge"
	"appforge/pkg/git"
	"appforge/pkg/logx"
	"appforge/pkg/persistence"
	"appforge/pkg/plan"
	"appforge/pkg/spec"
	"appforge/pkg/translate"
	"appforge/pkg/utils"
	"appforge/pkg/workspace"
)

// MinGeneratedFiles is the minimum file count for a usable
// application. Below it, the static strategy is forced once; if still
// below, the job fails.
const MinGeneratedFiles = 4

// VCS is the version-control surface the orchestrator needs.
// *git.Runner implements it.
type VCS interface {
	Init(ctx context.Context) error
	CommitAll(ctx context.Context, message string) (bool, error)
	SetRemote(ctx context.Context, repoURL, token string) error
	Push(ctx context.Context) error
}

// VCSFactory builds a VCS bound to a workspace directory.
type VCSFactory func(dir string) VCS

// Deployer triggers deployment. *deploy.Trigger implements it.
type Deployer interface {
	Enabled() bool
	Fire(ctx context.Context, req deploy.Request) (*deploy.Response, error)
}

// Result is the terminal outcome of one job.
type Result struct {
	JobID          string   `json:"job_id"`
	Project        string   `json:"project"`
	Status         Status   `json:"status"`
	Strategy       string   `json:"strategy,omitempty"`
	FilesGenerated int      `json:"files_generated"`
	RepoURL        string   `json:"repo_url,omitempty"`
	LiveURL        string   `json:"live_url,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Options configures an orchestrator. Nil collaborators disable their
// phase: nil Forge skips repo creation and push, nil Deploy skips the
// deploy trigger, nil Client runs deterministic strategies only.
type Options struct {
	Client llm.Client

	// ClientFactory, when set, builds a per-job client instead of
	// Client. Used to label provider metrics with the job id.
	ClientFactory func(jobID string) llm.Client

	Store      *persistence.Store
	Workspaces *workspace.Manager
	Forge      forge.Client
	Deploy     Deployer
	VCS        VCSFactory
	Static     StaticGenerator
	Sinks      []events.Sink

	Strictness    critic.Strictness
	SkipReasoning bool
}

// Orchestrator runs jobs end to end.
type Orchestrator struct {
	opts   Options
	logger *logx.Logger
}

// NewOrchestrator creates an orchestrator. Store and Workspaces are
// required.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Workspaces == nil {
		return nil, fmt.Errorf("workspace manager is required")
	}
	if opts.VCS == nil {
		opts.VCS = func(dir string) VCS { return git.NewRunner(dir) }
	}
	return &Orchestrator{opts: opts, logger: logx.NewLogger("orchestrator")}, nil
}

// Run executes one job for the given architecture spec. The returned
// Result always carries a terminal status; the error return is
// reserved for failures to even record the job.
func (o *Orchestrator) Run(ctx context.Context, archSpec *spec.ArchitectureSpec) (*Result, error) {
	appName := utils.Slugify(archSpec.Name())
	jobID := utils.NewJobID()

	specJSON, err := json.Marshal(archSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode spec: %w", err)
	}
	if err := o.opts.Store.UpsertProject(ctx, appName); err != nil {
		return nil, err
	}
	if err := o.opts.Store.CreateJob(ctx, jobID, appName, string(StatusPending), string(specJSON)); err != nil {
		return nil, err
	}

	result := &Result{JobID: jobID, Project: appName, Status: StatusPending}
	publisher := events.NewPublisher(jobID, o.opts.Sinks...)

	status, err := result.Status.Transition(StatusRunning)
	if err != nil {
		return nil, err
	}
	result.Status = status
	if err := o.opts.Store.UpdateJobStatus(ctx, jobID, string(StatusRunning)); err != nil {
		return nil, err
	}

	ws, err := o.opts.Workspaces.Create(jobID)
	if err != nil {
		o.fail(result, fmt.Sprintf("failed to create workspace: %v", err))
		o.finish(ctx, result, publisher)
		return result, nil
	}
	// Cleanup is guaranteed regardless of which phase the job exits
	// from, including panics below.
	defer ws.Cleanup()

	client := o.opts.Client
	if o.opts.ClientFactory != nil {
		client = o.opts.ClientFactory(jobID)
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("job %s panicked: %v", jobID, r)
				o.fail(result, fmt.Sprintf("internal error: %v", r))
			}
		}()
		o.runPhases(ctx, archSpec, ws, result, publisher, client)
	}()

	o.finish(ctx, result, publisher)
	return result, nil
}

// fail moves the result to failed if a transition is legal; terminal
// states are never overwritten.
func (o *Orchestrator) fail(result *Result, message string) {
	if result.Status.Terminal() {
		return
	}
	if next, err := result.Status.Transition(StatusFailed); err == nil {
		result.Status = next
	}
	result.Error = message
}

func (o *Orchestrator) runPhases(ctx context.Context, archSpec *spec.ArchitectureSpec, ws *workspace.Workspace, result *Result, publisher *events.Publisher, client llm.Client) {
	warn := func(format string, args ...any) {
		message := fmt.Sprintf(format, args...)
		result.Warnings = append(result.Warnings, message)
		o.logger.Warn("job %s: %s", result.JobID, message)
	}

	// (b) initialize version control in the fresh workspace.
	vcs := o.opts.VCS(ws.Dir())
	if err := vcs.Init(ctx); err != nil {
		warn("version control init failed: %v", err)
		vcs = nil
	}

	// (c) translate and critique.
	translated := translate.Translate(archSpec)
	publisher.Publish(events.StageTranslate, fmt.Sprintf("translated %d components, %d interactions",
		len(translated.Components), len(translated.Interactions)))

	judge := critic.New(client, o.opts.Strictness)
	critique := judge.Critique(ctx, archSpec, translated, o.opts.SkipReasoning)
	publisher.Publish(events.StageCritique, critique.Summary)
	if critique.Blocking {
		o.fail(result, fmt.Sprintf("architecture rejected: %s", critique.Summary))
		return
	}
	for _, issue := range critique.Issues {
		if issue.Severity == critic.SeverityHigh || issue.Severity == critic.SeverityCritical {
			warn("critique: %s", issue.Problem)
		}
	}

	// (d) interpret the domain and build the plan.
	model := domain.New(client).Interpret(ctx, archSpec, translated)
	publisher.Publish(events.StageInterpret, fmt.Sprintf("archetype %s, %d entities",
		model.Archetype, len(model.Entities)))

	generationPlan, err := plan.Build(result.Project, model, translated)
	if err != nil {
		o.fail(result, fmt.Sprintf("planning failed: %v", err))
		return
	}
	publisher.Publish(events.StagePlan, fmt.Sprintf("planned %d files", len(generationPlan.Files)))

	// (e) walk the strategy ladder.
	gen := &GenContext{
		WorkspaceDir: ws.Dir(),
		AppName:      result.Project,
		Intent:       archSpec.Intent,
		Plan:         generationPlan,
		Model:        model,
		OnFileWritten: func(path string) {
			publisher.Publish(events.StageGenerate, "wrote "+path)
		},
	}

	var files []string
	strategies := defaultStrategies(client, o.opts.Static)
	for _, strategy := range strategies {
		outcome := strategy.Generate(ctx, gen)
		if outcome.Escalate {
			warn("strategy %s escalated: %s", strategy.Name(), outcome.Reason)
			continue
		}
		files = outcome.Files
		result.Strategy = strategy.Name()
		break
	}

	// (f) minimum-output validation with one forced static retry.
	if len(files) < MinGeneratedFiles {
		warn("generated %d files, below minimum %d; forcing static generation", len(files), MinGeneratedFiles)
		static := strategies[len(strategies)-1]
		outcome := static.Generate(ctx, gen)
		if !outcome.Escalate {
			files = outcome.Files
			result.Strategy = static.Name()
		}
		if len(files) < MinGeneratedFiles {
			o.fail(result, fmt.Sprintf("generation produced %d files, minimum is %d", len(files), MinGeneratedFiles))
			return
		}
	}
	result.FilesGenerated = len(files)

	// (g) commit. Nothing to commit is a warning, not a failure.
	if vcs != nil {
		committed, err := vcs.CommitAll(ctx, fmt.Sprintf("Generate %s (%d files)", result.Project, len(files)))
		switch {
		case err != nil:
			warn("commit failed: %v", err)
		case !committed:
			warn("nothing to commit")
		default:
			publisher.Publish(events.StageCommit, fmt.Sprintf("committed %d files", len(files)))
		}
	}

	// (h) link a remote once per project, then push.
	if o.opts.Forge != nil && vcs != nil {
		o.publish(ctx, result, vcs, publisher, warn)
	}

	// (i) deployment trigger, best-effort.
	if o.opts.Deploy != nil && o.opts.Deploy.Enabled() {
		ack, err := o.opts.Deploy.Fire(ctx, deploy.Request{
			AppName: result.Project,
			RepoURL: result.RepoURL,
		})
		if err != nil {
			warn("deploy trigger failed: %v", err)
		} else {
			result.LiveURL = ack.LiveURL
			publisher.Publish(events.StageDeploy, "deployment triggered")
		}
	}

	// (j) resolve the terminal state.
	terminal := StatusCompleted
	if len(result.Warnings) > 0 {
		terminal = StatusCompletedWithWarnings
	}
	if next, err := result.Status.Transition(terminal); err == nil {
		result.Status = next
	}
}

// publish ensures the project has a linked repository (created at most
// once per project, never once per job) and pushes. Every failure here
// is a warning.
func (o *Orchestrator) publish(ctx context.Context, result *Result, vcs VCS, publisher *events.Publisher, warn func(string, ...any)) {
	repoURL := ""
	if project, err := o.opts.Store.GetProject(ctx, result.Project); err == nil {
		repoURL = project.RepoURL
	}

	if repoURL == "" {
		repo, err := o.opts.Forge.EnsureRepo(ctx, result.Project)
		if err != nil {
			warn("repository creation failed: %v", err)
			return
		}
		repoURL = repo.CloneURL
		if err := o.opts.Store.SetProjectRepo(ctx, result.Project, repoURL); err != nil {
			warn("failed to record repository URL: %v", err)
		}
	}
	result.RepoURL = repoURL

	token, err := o.opts.Forge.Token(ctx)
	if err != nil {
		warn("no push credential available: %v", err)
		return
	}
	if err := vcs.SetRemote(ctx, repoURL, token); err != nil {
		warn("failed to set remote: %v", err)
		return
	}
	if err := vcs.Push(ctx); err != nil {
		warn("push failed: %v", err)
		return
	}
	publisher.Publish(events.StagePush, "pushed to "+repoURL)
}

// finish persists the terminal state and emits the final event.
func (o *Orchestrator) finish(ctx context.Context, result *Result, publisher *events.Publisher) {
	if !result.Status.Terminal() {
		// Phases returned without resolving a terminal state.
		o.fail(result, "job ended without a terminal status")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		o.logger.Error("failed to encode result for job %s: %v", result.JobID, err)
		resultJSON = []byte("{}")
	}
	if result.Strategy != "" {
		if err := o.opts.Store.SetJobStrategy(ctx, result.JobID, result.Strategy); err != nil {
			o.logger.Warn("failed to record strategy for job %s: %v", result.JobID, err)
		}
	}
	if err := o.opts.Store.FinishJob(ctx, result.JobID, string(result.Status), string(resultJSON), result.Warnings, result.Error); err != nil {
		o.logger.Error("failed to persist result for job %s: %v", result.JobID, err)
	}

	if result.Status == StatusCompleted || result.Status == StatusCompletedWithWarnings {
		if err := o.opts.Store.RecordProjectSuccess(ctx, result.Project, result.JobID); err != nil {
			o.logger.Warn("failed to record project success: %v", err)
		}
	}
	publisher.Publish(events.StageFinish, fmt.Sprintf("job %s: %s", result.JobID, result.Status))
}
