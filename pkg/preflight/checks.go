package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"appforge/pkg/config"
)

// checkGit verifies the git binary is installed.
func checkGit(ctx context.Context) CheckResult {
	result := CheckResult{Provider: ProviderGit}

	output, err := exec.CommandContext(ctx, "git", "--version").Output()
	if err != nil {
		result.Message = "git is not installed"
		result.Error = err
		return result
	}

	result.Passed = true
	result.Message = strings.TrimSpace(string(output))
	return result
}

// checkGitHub verifies the gh CLI is installed and authenticated.
func checkGitHub(ctx context.Context) CheckResult {
	result := CheckResult{Provider: ProviderGitHub}

	if err := exec.CommandContext(ctx, "gh", "--version").Run(); err != nil {
		result.Message = "GitHub CLI (gh) is not installed"
		result.Error = err
		return result
	}
	if err := exec.CommandContext(ctx, "gh", "auth", "status").Run(); err != nil {
		result.Message = "GitHub CLI is not authenticated"
		result.Error = err
		return result
	}

	result.Passed = true
	result.Message = "GitHub CLI available and authenticated"
	return result
}

// checkAPIKey verifies a provider credential is available, either from
// the decrypted secrets file or the environment.
func checkAPIKey(provider Provider, name string) CheckResult {
	result := CheckResult{Provider: provider}

	if _, err := config.GetSecret(name); err != nil {
		result.Message = fmt.Sprintf("%s is not set", name)
		result.Error = err
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("%s credential available", provider)
	return result
}

// checkOllama verifies a local Ollama server responds.
func checkOllama(ctx context.Context, host string) CheckResult {
	result := CheckResult{Provider: ProviderOllama}
	if host == "" {
		host = "http://localhost:11434"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/api/version", http.NoBody)
	if err != nil {
		result.Message = "failed to build Ollama health request"
		result.Error = err
		return result
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		result.Message = fmt.Sprintf("cannot reach Ollama at %s", host)
		result.Error = err
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		result.Message = fmt.Sprintf("Ollama returned status %d", resp.StatusCode)
		result.Error = fmt.Errorf("unexpected status %d", resp.StatusCode)
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Ollama reachable at %s", host)
	return result
}

// checkDeploy verifies the deployment endpoint accepts connections. A
// 4xx/5xx still counts as reachable; only transport errors fail.
func checkDeploy(ctx context.Context, endpoint string) CheckResult {
	result := CheckResult{Provider: ProviderDeploy}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, http.NoBody)
	if err != nil {
		result.Message = "deploy endpoint URL is invalid"
		result.Error = err
		return result
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		result.Message = fmt.Sprintf("cannot reach deploy endpoint %s", endpoint)
		result.Error = err
		return result
	}
	_ = resp.Body.Close()

	result.Passed = true
	result.Message = fmt.Sprintf("deploy endpoint reachable (%d)", resp.StatusCode)
	return result
}
