package preflight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"appforge/pkg/config"
)

func TestRequiredProvidersMinimalConfig(t *testing.T) {
	cfg := &config.Config{Provider: "anthropic"}
	providers := RequiredProviders(cfg)

	assert.Contains(t, providers, ProviderGit)
	assert.Contains(t, providers, ProviderAnthropic)
	assert.NotContains(t, providers, ProviderGitHub)
	assert.NotContains(t, providers, ProviderDeploy)
}

func TestRequiredProvidersFollowConfig(t *testing.T) {
	cfg := &config.Config{
		Provider:       "ollama",
		RepoOwner:      "acme",
		DeployEndpoint: "https://deploy.example.com/hook",
	}
	providers := RequiredProviders(cfg)

	assert.Contains(t, providers, ProviderOllama)
	assert.Contains(t, providers, ProviderGitHub)
	assert.Contains(t, providers, ProviderDeploy)
	assert.NotContains(t, providers, ProviderAnthropic)
}

func TestSummarizeReportsFailures(t *testing.T) {
	results := &Results{
		Checks: []CheckResult{
			{Provider: ProviderGit, Passed: true},
			{Provider: ProviderGitHub, Passed: false},
		},
	}
	assert.Contains(t, summarize(results), "github")

	allGood := &Results{
		Passed: true,
		Checks: []CheckResult{{Provider: ProviderGit, Passed: true}},
	}
	assert.Contains(t, summarize(allGood), "passed")
}

func TestGuidanceCoversEveryProvider(t *testing.T) {
	for _, provider := range []Provider{
		ProviderGit, ProviderGitHub, ProviderAnthropic,
		ProviderOpenAI, ProviderGoogle, ProviderOllama, ProviderDeploy,
	} {
		assert.NotEmpty(t, Guidance(provider), "provider %s", provider)
	}
}
