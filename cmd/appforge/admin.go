package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"appforge/pkg/config"
	"appforge/pkg/metrics"
	"appforge/pkg/persistence"
	"appforge/pkg/preflight"
	"appforge/pkg/workspace"
)

func cmdJobs(args []string) int {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	projectDir := commonFlags(fs)
	project := fs.String("project", "", "Project name to list jobs for")
	_ = fs.Parse(args)

	if *project == "" {
		fmt.Fprintln(os.Stderr, "jobs: -project is required")
		return 2
	}

	if err := setup(*projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		return 1
	}
	defer func() { _ = persistence.Close() }()

	records, err := persistence.NewStore().ListJobs(context.Background(), *project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list jobs: %v\n", err)
		return 1
	}
	if len(records) == 0 {
		fmt.Printf("no jobs for project %s\n", *project)
		return 0
	}

	for _, record := range records {
		line := fmt.Sprintf("%s  %-25s  %-13s  %s",
			record.CreatedAt.Format(time.RFC3339), record.ID, record.Status, record.Strategy)
		if len(record.Warnings) > 0 {
			line += fmt.Sprintf("  (%d warnings)", len(record.Warnings))
		}
		fmt.Println(line)
	}
	return 0
}

func cmdSweep(args []string) int {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	projectDir := commonFlags(fs)
	maxAge := fs.Duration("max-age", workspace.DefaultStaleAge, "Remove job workspaces older than this")
	_ = fs.Parse(args)

	if err := config.LoadConfig(*projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	manager, err := workspace.NewManager(cfg.WorkspaceRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open workspace root: %v\n", err)
		return 1
	}

	removed, err := manager.SweepStale(*maxAge)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep failed: %v\n", err)
		return 1
	}
	fmt.Printf("removed %d stale workspace(s) under %s\n", removed, manager.Root())
	return 0
}

func cmdUsage(args []string) int {
	fs := flag.NewFlagSet("usage", flag.ExitOnError)
	jobID := fs.String("job", "", "Job ID to report usage for")
	prometheusURL := fs.String("prometheus", "http://localhost:9090", "Prometheus server address")
	byModel := fs.Bool("by-model", false, "Break usage down per model")
	_ = fs.Parse(args)

	if *jobID == "" {
		fmt.Fprintln(os.Stderr, "usage: -job is required")
		return 2
	}

	service, err := metrics.NewQueryService(*prometheusURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create query service: %v\n", err)
		return 1
	}
	ctx := context.Background()

	if *byModel {
		perModel, err := service.JobUsageByModel(ctx, *jobID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
			return 1
		}
		if len(perModel) == 0 {
			fmt.Printf("no usage recorded for job %s\n", *jobID)
			return 0
		}
		for model, usage := range perModel {
			fmt.Printf("%s: %d requests, %d prompt + %d completion = %d tokens\n",
				model, usage.Requests, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
		}
		return 0
	}

	usage, err := service.JobUsage(ctx, *jobID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		return 1
	}
	fmt.Printf("job %s\n", usage.JobID)
	fmt.Printf("  requests:   %d (%d failed)\n", usage.Requests, usage.FailedRequests)
	fmt.Printf("  prompt:     %d tokens\n", usage.PromptTokens)
	fmt.Printf("  completion: %d tokens\n", usage.CompletionTokens)
	fmt.Printf("  total:      %d tokens\n", usage.TotalTokens)
	return 0
}

func cmdDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	projectDir := commonFlags(fs)
	_ = fs.Parse(args)

	if err := config.LoadConfig(*projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	if err := loadSecrets(*projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load secrets: %v\n", err)
		return 1
	}
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	results := preflight.Run(context.Background(), &cfg)
	for _, check := range results.Checks {
		mark := "✓"
		if !check.Passed {
			mark = "✗"
		}
		fmt.Printf("%s %-10s %s\n", mark, check.Provider, check.Message)
		if !check.Passed {
			fmt.Printf("  %s\n", preflight.Guidance(check.Provider))
		}
	}
	fmt.Println(results.Summary)
	if !results.Passed {
		return 1
	}
	return 0
}
