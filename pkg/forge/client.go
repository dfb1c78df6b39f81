// Package forge abstracts the git hosting provider that generated
// applications are published to.
package forge

import "context"

// Provider identifies a hosting provider type.
type Provider string

// Provider constants.
const (
	ProviderGitHub Provider = "github"
)

// Repo describes a hosted repository.
type Repo struct {
	// Name is the short repository name.
	Name string `json:"name"`

	// FullName is owner/name.
	FullName string `json:"full_name"`

	// CloneURL is the canonical https clone URL.
	CloneURL string `json:"clone_url"`

	// HTMLURL is the web URL.
	HTMLURL string `json:"html_url"`

	// Created is true when EnsureRepo created the repository rather
	// than finding an existing one.
	Created bool `json:"created"`
}

// Client is the operation surface the job orchestrator needs from a
// hosting provider.
type Client interface {
	// EnsureRepo returns the repository with the given name, creating
	// it when it does not exist. Calling it twice with the same name
	// returns the same repository.
	EnsureRepo(ctx context.Context, name string) (*Repo, error)

	// Token returns a credential usable for git push over https.
	Token(ctx context.Context) (string, error)
}
