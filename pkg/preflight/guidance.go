package preflight

// Guidance returns a short remediation hint for a failed check.
func Guidance(provider Provider) string {
	switch provider {
	case ProviderGit:
		return "Install git: https://git-scm.com/downloads"
	case ProviderGitHub:
		return "Install the GitHub CLI and run: gh auth login"
	case ProviderAnthropic:
		return "Set ANTHROPIC_API_KEY or store it with: appforge secrets set ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "Set OPENAI_API_KEY: https://platform.openai.com/api-keys"
	case ProviderGoogle:
		return "Set GOOGLE_GENAI_API_KEY: https://aistudio.google.com/apikey"
	case ProviderOllama:
		return "Start Ollama locally: ollama serve"
	case ProviderDeploy:
		return "Check the deploy endpoint URL in config or APPFORGE_DEPLOY_ENDPOINT"
	default:
		return ""
	}
}
