package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"appforge/pkg/agent"
	"appforge/pkg/agent/llm"
	metricsmw "appforge/pkg/agent/middleware/metrics"
	"appforge/pkg/config"
	"appforge/pkg/critic"
	"appforge/pkg/deploy"
	"appforge/pkg/events"
	"appforge/pkg/forge/github"
	"appforge/pkg/job"
	"appforge/pkg/persistence"
	"appforge/pkg/preflight"
	"appforge/pkg/spec"
	"appforge/pkg/workspace"
)

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	projectDir := commonFlags(fs)
	specFile := fs.String("spec", "", "Path to the architecture spec (JSON)")
	noPush := fs.Bool("no-push", false, "Skip repository creation and push")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	skipChecks := fs.Bool("skip-checks", false, "Skip preflight checks")
	_ = fs.Parse(args)

	if *specFile == "" {
		fmt.Fprintln(os.Stderr, "run: -spec is required")
		return 2
	}

	if err := setup(*projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		return 1
	}
	defer func() { _ = persistence.Close() }()

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*skipChecks {
		results := preflight.Run(ctx, &cfg)
		for _, check := range results.Checks {
			if !check.Passed {
				fmt.Fprintf(os.Stderr, "✗ %s: %s\n  %s\n",
					check.Provider, check.Message, preflight.Guidance(check.Provider))
			}
		}
		if !results.Passed {
			fmt.Fprintf(os.Stderr, "%s\n", results.Summary)
			return 1
		}
	}

	archSpec, err := spec.Load(*specFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load spec: %v\n", err)
		return 1
	}

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	orchestrator, err := buildOrchestrator(&cfg, *noPush)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build orchestrator: %v\n", err)
		return 1
	}

	result, err := orchestrator.Run(ctx, archSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "job did not start: %v\n", err)
		return 1
	}

	printResult(result)
	if result.Status == job.StatusFailed {
		return 1
	}
	return 0
}

// setup loads configuration and secrets and opens the database. Every
// subcommand that touches the store goes through it.
func setup(projectDir string) error {
	if err := config.LoadConfig(projectDir); err != nil {
		return err
	}
	if err := loadSecrets(projectDir); err != nil {
		return err
	}

	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	dbPath := cfg.DatabasePath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(projectDir, dbPath)
	}
	return persistence.Initialize(dbPath)
}

func buildOrchestrator(cfg *config.Config, noPush bool) (*job.Orchestrator, error) {
	store := persistence.NewStore()

	workspaces, err := workspace.NewManager(cfg.WorkspaceRoot)
	if err != nil {
		return nil, err
	}
	if removed, err := workspaces.SweepStale(workspace.DefaultStaleAge); err == nil && removed > 0 {
		fmt.Printf("swept %d stale workspace(s)\n", removed)
	}

	providerCfg, err := providerConfig(cfg)
	if err != nil {
		return nil, err
	}
	// Fail on misconfiguration now rather than mid-job.
	if _, err := agent.NewRawClient(providerCfg); err != nil {
		return nil, err
	}
	recorder := metricsmw.NewPrometheusRecorder()

	opts := job.Options{
		ClientFactory: func(jobID string) llm.Client {
			client, err := agent.NewClient(providerCfg, recorder, jobID)
			if err != nil {
				return nil
			}
			return client
		},
		Store:         store,
		Workspaces:    workspaces,
		Deploy:        deploy.NewTrigger(cfg.DeployEndpoint),
		Sinks:         []events.Sink{events.NewConsoleSink(), events.NewStoreSink(store)},
		SkipReasoning: cfg.SkipCriticReasoning,
	}
	if cfg.CriticStrictness == "strict" {
		opts.Strictness = critic.StrictnessStrict
	}
	if !noPush {
		opts.Forge = github.NewClient(cfg.RepoOwner, cfg.PrivateRepos)
	}
	return job.NewOrchestrator(opts)
}

// providerConfig resolves the provider credential from the decrypted
// secrets file or the environment.
func providerConfig(cfg *config.Config) (*agent.ProviderConfig, error) {
	providerCfg := &agent.ProviderConfig{
		Provider:        cfg.Provider,
		Model:           cfg.Model,
		HostURL:         cfg.OllamaHost,
		TokensPerMinute: cfg.TokensPerMinute,
	}

	keyName := ""
	switch cfg.Provider {
	case agent.ProviderAnthropic:
		keyName = "ANTHROPIC_API_KEY"
	case agent.ProviderOpenAI:
		keyName = "OPENAI_API_KEY"
	case agent.ProviderGoogle:
		keyName = "GOOGLE_GENAI_API_KEY"
	case agent.ProviderOllama:
		return providerCfg, nil
	}

	key, err := config.GetSecret(keyName)
	if err != nil {
		return nil, fmt.Errorf("no credential for provider %s: %w", cfg.Provider, err)
	}
	providerCfg.APIKey = key
	return providerCfg, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "metrics server stopped: %v\n", err)
	}
}

func printResult(result *job.Result) {
	fmt.Printf("\nJob %s: %s\n", result.JobID, result.Status)
	if result.Strategy != "" {
		fmt.Printf("  strategy: %s\n", result.Strategy)
	}
	fmt.Printf("  files:    %d\n", result.FilesGenerated)
	if result.RepoURL != "" {
		fmt.Printf("  repo:     %s\n", result.RepoURL)
	}
	if result.LiveURL != "" {
		fmt.Printf("  live:     %s\n", result.LiveURL)
	}
	for _, warning := range result.Warnings {
		fmt.Printf("  warning:  %s\n", warning)
	}
	if result.Error != "" {
		fmt.Printf("  error:    %s\n", result.Error)
	}
}
