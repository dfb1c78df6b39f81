// Package preflight validates that the services and credentials a job
// will need are actually available before any job runs. Which checks
// run depends on the configured provider and integrations.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"appforge/pkg/agent"
	"appforge/pkg/config"
)

// Provider identifies a dependency that may need validation.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderOllama    Provider = "ollama"
	ProviderGit       Provider = "git"
	ProviderGitHub    Provider = "github"
	ProviderDeploy    Provider = "deploy"
)

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Error    error
	Message  string
	Provider Provider
	Passed   bool
}

// Results aggregates all check outcomes.
type Results struct {
	Summary string
	Checks  []CheckResult
	Passed  bool
}

// RequiredProviders determines which checks apply to the given
// configuration. Git is always required; GitHub only when a repository
// owner is configured, deploy only when an endpoint is set.
func RequiredProviders(cfg *config.Config) []Provider {
	providers := []Provider{ProviderGit}

	switch cfg.Provider {
	case agent.ProviderAnthropic:
		providers = append(providers, ProviderAnthropic)
	case agent.ProviderOpenAI:
		providers = append(providers, ProviderOpenAI)
	case agent.ProviderGoogle:
		providers = append(providers, ProviderGoogle)
	case agent.ProviderOllama:
		providers = append(providers, ProviderOllama)
	}

	if cfg.RepoOwner != "" {
		providers = append(providers, ProviderGitHub)
	}
	if cfg.DeployEndpoint != "" {
		providers = append(providers, ProviderDeploy)
	}
	return providers
}

// Run executes every required check and aggregates the results.
func Run(ctx context.Context, cfg *config.Config) *Results {
	results := &Results{Passed: true}

	for _, provider := range RequiredProviders(cfg) {
		var check CheckResult
		switch provider {
		case ProviderGit:
			check = checkGit(ctx)
		case ProviderGitHub:
			check = checkGitHub(ctx)
		case ProviderAnthropic:
			check = checkAPIKey(ProviderAnthropic, "ANTHROPIC_API_KEY")
		case ProviderOpenAI:
			check = checkAPIKey(ProviderOpenAI, "OPENAI_API_KEY")
		case ProviderGoogle:
			check = checkAPIKey(ProviderGoogle, "GOOGLE_GENAI_API_KEY")
		case ProviderOllama:
			check = checkOllama(ctx, cfg.OllamaHost)
		case ProviderDeploy:
			check = checkDeploy(ctx, cfg.DeployEndpoint)
		default:
			continue
		}
		results.Checks = append(results.Checks, check)
		if !check.Passed {
			results.Passed = false
		}
	}

	results.Summary = summarize(results)
	return results
}

func summarize(results *Results) string {
	if results.Passed {
		return fmt.Sprintf("all %d preflight checks passed", len(results.Checks))
	}
	var failed []string
	for _, check := range results.Checks {
		if !check.Passed {
			failed = append(failed, string(check.Provider))
		}
	}
	return fmt.Sprintf("%d of %d preflight checks failed: %s",
		len(failed), len(results.Checks), strings.Join(failed, ", "))
}
