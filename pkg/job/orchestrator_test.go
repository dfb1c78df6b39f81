package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/pkg/agent"
	"appforge/pkg/agent/llm"
	"appforge/pkg/deploy"
	"appforge/pkg/domain"
	"appforge/pkg/forge"
	"appforge/pkg/persistence"
	"appforge/pkg/spec"
	"appforge/pkg/workspace"
)

type fakeVCS struct {
	initErr   error
	commitErr error
	pushErr   error

	commits int
	pushes  int
	remote  string
}

func (v *fakeVCS) Init(context.Context) error { return v.initErr }

func (v *fakeVCS) CommitAll(context.Context, string) (bool, error) {
	if v.commitErr != nil {
		return false, v.commitErr
	}
	v.commits++
	return true, nil
}

func (v *fakeVCS) SetRemote(_ context.Context, repoURL, _ string) error {
	v.remote = repoURL
	return nil
}

func (v *fakeVCS) Push(context.Context) error {
	if v.pushErr != nil {
		return v.pushErr
	}
	v.pushes++
	return nil
}

type fakeForge struct {
	ensureCalls int
	createErr   error
}

func (f *fakeForge) EnsureRepo(_ context.Context, name string) (*forge.Repo, error) {
	f.ensureCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &forge.Repo{
		Name:     name,
		FullName: "acme/" + name,
		CloneURL: "https://github.com/acme/" + name + ".git",
		Created:  true,
	}, nil
}

func (f *fakeForge) Token(context.Context) (string, error) { return "ghp_test", nil }

type fakeDeploy struct {
	fireErr error
	fires   int
}

func (d *fakeDeploy) Enabled() bool { return true }

func (d *fakeDeploy) Fire(context.Context, deploy.Request) (*deploy.Response, error) {
	d.fires++
	if d.fireErr != nil {
		return nil, d.fireErr
	}
	return &deploy.Response{DeployID: "dep-1", LiveURL: "https://app.example.com"}, nil
}

type fakeStatic struct {
	calls int
	err   error
	files int
}

func (g *fakeStatic) Generate(root, _, _ string, _ *domain.Model) ([]string, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	var files []string
	for i := 0; i < g.files; i++ {
		name := fmt.Sprintf("file%d.js", i)
		if err := os.WriteFile(filepath.Join(root, name), []byte("// generated"), 0o644); err != nil {
			return nil, err
		}
		files = append(files, name)
	}
	return files, nil
}

func newTestOrchestrator(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	require.NoError(t, persistence.Reset())
	require.NoError(t, persistence.Initialize(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { _ = persistence.Reset() })

	manager, err := workspace.NewManager(t.TempDir())
	require.NoError(t, err)

	opts.Store = persistence.NewStore()
	opts.Workspaces = manager
	opts.SkipReasoning = true
	o, err := NewOrchestrator(opts)
	require.NoError(t, err)
	return o
}

// fullArchitecture is a well-formed graph: frontend, backend,
// database, and auth, all connected, with a concrete intent.
func fullArchitecture() *spec.ArchitectureSpec {
	return &spec.ArchitectureSpec{
		Nodes: []spec.Node{
			{ID: "fe", Kind: "frontend", Label: "Web UI"},
			{ID: "be", Kind: "backend", Label: "API Server"},
			{ID: "db", Kind: "database", Label: "Postgres"},
			{ID: "auth", Kind: "auth", Label: "Auth Service"},
		},
		Edges: []spec.Edge{
			{Source: "fe", Target: "be", Label: "calls"},
			{Source: "be", Target: "db", Label: "stores data in"},
			{Source: "be", Target: "auth", Label: "authenticates with"},
		},
		Intent:   "A task tracker where teams manage tasks and deadlines.",
		Metadata: map[string]string{"name": "Task Tracker"},
	}
}

func noEdgesArchitecture() *spec.ArchitectureSpec {
	return &spec.ArchitectureSpec{
		Nodes:    []spec.Node{{ID: "fe", Kind: "frontend"}},
		Intent:   "A lonely frontend with nothing to talk to.",
		Metadata: map[string]string{"name": "orphan"},
	}
}

func writeCall(path string) llm.ToolCall {
	return llm.ToolCall{
		ID:         "call-" + path,
		Name:       "write_file",
		Parameters: map[string]any{"path": path, "content": "// " + path},
	}
}

func toolTurn(calls ...llm.ToolCall) agent.MockResponse {
	return agent.MockResponse{Response: llm.CompletionResponse{ToolCalls: calls, StopReason: "tool_use"}}
}

func textTurn(content string) agent.MockResponse {
	return agent.MockResponse{Response: llm.CompletionResponse{Content: content, StopReason: "end_turn"}}
}

func TestBlockingCritiqueFailsWithoutGeneration(t *testing.T) {
	static := &fakeStatic{files: 5}
	o := newTestOrchestrator(t, Options{Static: static})

	// Components without a single edge: the critic blocks this before
	// any generation.
	s := noEdgesArchitecture()

	res, err := o.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "architecture rejected")
	assert.Zero(t, static.calls, "generation must not run after a blocking critique")
	assert.Zero(t, res.FilesGenerated)

	job, err := persistence.NewStore().GetJob(context.Background(), res.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(StatusFailed), job.Status)
}

func TestConstrainedGenerationCompletes(t *testing.T) {
	client := agent.NewMockClient(
		textTurn("no enrichment"), // consumed by the domain interpreter
		toolTurn(
			writeCall("package.json"),
			writeCall("src/index.js"),
			writeCall("README.md"),
		),
		toolTurn(writeCall("src/db.js"), writeCall("src/auth.js")),
		toolTurn(llm.ToolCall{ID: "done", Name: "complete", Parameters: map[string]any{}}),
	)

	vcs := &fakeVCS{}
	o := newTestOrchestrator(t, Options{
		Client: client,
		VCS:    func(string) VCS { return vcs },
	})

	res, err := o.Run(context.Background(), fullArchitecture())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, res.Status, "warnings: %v, error: %s", res.Warnings, res.Error)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, StrategyConstrained, res.Strategy)
	assert.Equal(t, 5, res.FilesGenerated)
	assert.Equal(t, 1, vcs.commits)

	project, err := persistence.NewStore().GetProject(context.Background(), res.Project)
	require.NoError(t, err)
	assert.Equal(t, res.JobID, project.LastSuccessfulJob)
}

func TestStaticFallbackCompletesWithWarnings(t *testing.T) {
	static := &fakeStatic{files: 5}
	vcs := &fakeVCS{}
	o := newTestOrchestrator(t, Options{
		Static: static,
		VCS:    func(string) VCS { return vcs },
	})

	res, err := o.Run(context.Background(), fullArchitecture())
	require.NoError(t, err)

	assert.Equal(t, StatusCompletedWithWarnings, res.Status)
	assert.Equal(t, StrategyStatic, res.Strategy)
	assert.Equal(t, 5, res.FilesGenerated)
	// Both provider-backed strategies escalated on the way down.
	assert.GreaterOrEqual(t, len(res.Warnings), 2)
	assert.Equal(t, 1, static.calls)

	project, err := persistence.NewStore().GetProject(context.Background(), res.Project)
	require.NoError(t, err)
	assert.Equal(t, res.JobID, project.LastSuccessfulJob,
		"a warned completion still counts as the last successful job")
}

func TestAllStrategiesFailingFailsBeforePublish(t *testing.T) {
	static := &fakeStatic{err: fmt.Errorf("template pack corrupted")}
	hosting := &fakeForge{}
	vcs := &fakeVCS{}
	o := newTestOrchestrator(t, Options{
		Static: static,
		Forge:  hosting,
		VCS:    func(string) VCS { return vcs },
	})

	res, err := o.Run(context.Background(), fullArchitecture())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "minimum")
	// The forced retry runs the static strategy a second time.
	assert.Equal(t, 2, static.calls)
	assert.Zero(t, hosting.ensureCalls, "no repository may be created for a failed job")
	assert.Zero(t, vcs.pushes)
}

func TestPushFailureIsWarningNotFailure(t *testing.T) {
	vcs := &fakeVCS{pushErr: fmt.Errorf("remote hung up")}
	hosting := &fakeForge{}
	o := newTestOrchestrator(t, Options{
		Static: &fakeStatic{files: 5},
		Forge:  hosting,
		VCS:    func(string) VCS { return vcs },
	})

	res, err := o.Run(context.Background(), fullArchitecture())
	require.NoError(t, err)

	assert.Equal(t, StatusCompletedWithWarnings, res.Status)
	assert.Equal(t, "https://github.com/acme/task-tracker.git", res.RepoURL)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "push failed") {
			found = true
		}
	}
	assert.True(t, found, "warnings: %v", res.Warnings)

	project, err := persistence.NewStore().GetProject(context.Background(), res.Project)
	require.NoError(t, err)
	assert.Equal(t, res.RepoURL, project.RepoURL)
}

func TestRepoCreatedOncePerProject(t *testing.T) {
	hosting := &fakeForge{}
	o := newTestOrchestrator(t, Options{
		Static: &fakeStatic{files: 5},
		Forge:  hosting,
		VCS:    func(string) VCS { return &fakeVCS{} },
	})

	_, err := o.Run(context.Background(), fullArchitecture())
	require.NoError(t, err)
	res, err := o.Run(context.Background(), fullArchitecture())
	require.NoError(t, err)

	assert.Equal(t, 1, hosting.ensureCalls, "second job must reuse the stored repository")
	assert.Equal(t, "https://github.com/acme/task-tracker.git", res.RepoURL)
}

func TestDeployOutcomes(t *testing.T) {
	t.Run("success records live URL", func(t *testing.T) {
		trigger := &fakeDeploy{}
		o := newTestOrchestrator(t, Options{
			Static: &fakeStatic{files: 5},
			Deploy: trigger,
			VCS:    func(string) VCS { return &fakeVCS{} },
		})

		res, err := o.Run(context.Background(), fullArchitecture())
		require.NoError(t, err)
		assert.Equal(t, 1, trigger.fires)
		assert.Equal(t, "https://app.example.com", res.LiveURL)
	})

	t.Run("failure is a warning", func(t *testing.T) {
		trigger := &fakeDeploy{fireErr: fmt.Errorf("platform unavailable")}
		o := newTestOrchestrator(t, Options{
			Static: &fakeStatic{files: 5},
			Deploy: trigger,
			VCS:    func(string) VCS { return &fakeVCS{} },
		})

		res, err := o.Run(context.Background(), fullArchitecture())
		require.NoError(t, err)
		assert.Equal(t, StatusCompletedWithWarnings, res.Status)
		assert.Empty(t, res.LiveURL)
	})
}

func TestWorkspaceCleanedUpAfterRun(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, persistence.Reset())
	require.NoError(t, persistence.Initialize(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { _ = persistence.Reset() })

	manager, err := workspace.NewManager(root)
	require.NoError(t, err)

	o, err := NewOrchestrator(Options{
		Store:      persistence.NewStore(),
		Workspaces: manager,
		Static:     &fakeStatic{files: 5},
		VCS:        func(string) VCS { return &fakeVCS{} },
	})
	require.NoError(t, err)

	_, err = o.Run(context.Background(), fullArchitecture())
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace must be deleted after the job")
}
