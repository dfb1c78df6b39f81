// Package git wraps the git CLI for publishing generated workspaces.
// Operations run in a fixed working directory and authenticate by
// injecting a token into the remote URL, never into on-disk config
// beyond the remote itself.
package git

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"appforge/pkg/logx"
)

// CommitterName and CommitterEmail identify generated commits.
const (
	CommitterName  = "appforge"
	CommitterEmail = "bot@appforge.dev"
)

// Runner executes git commands inside one repository directory.
type Runner struct {
	dir    string
	logger *logx.Logger
}

// NewRunner creates a runner for the given directory.
func NewRunner(dir string) *Runner {
	return &Runner{dir: dir, logger: logx.NewLogger("git")}
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("git %s failed: %w\nOutput: %s",
			strings.Join(args, " "), err, redactTokens(string(output)))
	}
	return string(output), nil
}

// Init initializes a repository with main as the default branch.
func (r *Runner) Init(ctx context.Context) error {
	if _, err := r.run(ctx, "init", "--initial-branch=main"); err != nil {
		return err
	}
	return r.ConfigureIdentity(ctx)
}

// ConfigureIdentity sets the local committer identity so commits work
// in environments with no global git config.
func (r *Runner) ConfigureIdentity(ctx context.Context) error {
	if _, err := r.run(ctx, "config", "user.name", CommitterName); err != nil {
		return err
	}
	_, err := r.run(ctx, "config", "user.email", CommitterEmail)
	return err
}

// CommitAll stages everything and commits. It returns false with no
// error when there is nothing to commit.
func (r *Runner) CommitAll(ctx context.Context, message string) (bool, error) {
	if _, err := r.run(ctx, "add", "-A"); err != nil {
		return false, err
	}
	status, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(status) == "" {
		r.logger.Debug("nothing to commit in %s", r.dir)
		return false, nil
	}
	if _, err := r.run(ctx, "commit", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

// SetRemote points origin at repoURL, embedding the token for
// authentication when one is provided. Any existing origin is
// replaced.
func (r *Runner) SetRemote(ctx context.Context, repoURL, token string) error {
	authURL, err := injectToken(repoURL, token)
	if err != nil {
		return err
	}
	_, _ = r.run(ctx, "remote", "remove", "origin")
	_, err = r.run(ctx, "remote", "add", "origin", authURL)
	return err
}

// Push pushes main to origin, forcing so a re-run of a project fully
// replaces the previous generation.
func (r *Runner) Push(ctx context.Context) error {
	_, err := r.run(ctx, "push", "--force", "-u", "origin", "main")
	return err
}

// HeadSHA returns the current commit hash.
func (r *Runner) HeadSHA(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// injectToken rewrites an https URL to carry the token as userinfo.
// Non-https URLs and empty tokens pass through unchanged.
func injectToken(repoURL, token string) (string, error) {
	if token == "" || !strings.HasPrefix(repoURL, "https://") {
		return repoURL, nil
	}
	parsed, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL: %w", err)
	}
	parsed.User = url.UserPassword("x-access-token", token)
	return parsed.String(), nil
}

// redactTokens strips userinfo credentials from URLs that git echoes
// back in error output.
func redactTokens(output string) string {
	var b strings.Builder
	for _, line := range strings.Split(output, "\n") {
		if idx := strings.Index(line, "https://"); idx >= 0 {
			if at := strings.Index(line[idx:], "@"); at >= 0 {
				line = line[:idx+len("https://")] + "***" + line[idx+at:]
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
