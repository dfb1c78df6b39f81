// Package github implements the forge client with the gh CLI. API
// calls run on the host; gh handles authentication and token storage.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"appforge/pkg/forge"
	"appforge/pkg/logx"
)

const defaultTimeout = 30 * time.Second

// Client provides GitHub operations via the gh CLI.
type Client struct {
	owner   string
	private bool
	logger  *logx.Logger
	timeout time.Duration
}

// NewClient creates a client that manages repositories under owner.
// An empty owner uses the authenticated account.
func NewClient(owner string, private bool) *Client {
	return &Client{
		owner:   owner,
		private: private,
		logger:  logx.NewLogger("github"),
		timeout: defaultTimeout,
	}
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "gh", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("gh %s failed: %w\nOutput: %s",
			strings.Join(args, " "), err, string(output))
	}
	return output, nil
}

func (c *Client) repoPath(name string) string {
	if c.owner == "" {
		return name
	}
	return c.owner + "/" + name
}

// repoView is the subset of `gh repo view --json` output we read.
type repoView struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	URL string `json:"url"`
}

// EnsureRepo implements forge.Client. Creation is idempotent: an
// existing repository is returned as-is, so re-running a project
// pushes to the same remote.
func (c *Client) EnsureRepo(ctx context.Context, name string) (*forge.Repo, error) {
	if repo, err := c.view(ctx, name); err == nil {
		c.logger.Debug("repository %s already exists", repo.FullName)
		return repo, nil
	}

	args := []string{"repo", "create", c.repoPath(name)}
	if c.private {
		args = append(args, "--private")
	} else {
		args = append(args, "--public")
	}
	if _, err := c.run(ctx, args...); err != nil {
		// Lost the race with a concurrent create: treat exists as success.
		if repo, viewErr := c.view(ctx, name); viewErr == nil {
			return repo, nil
		}
		return nil, fmt.Errorf("failed to create repository %s: %w", name, err)
	}

	repo, err := c.view(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("repository %s created but not viewable: %w", name, err)
	}
	repo.Created = true
	c.logger.Info("created repository %s", repo.FullName)
	return repo, nil
}

func (c *Client) view(ctx context.Context, name string) (*forge.Repo, error) {
	output, err := c.run(ctx, "repo", "view", c.repoPath(name), "--json", "name,owner,url")
	if err != nil {
		return nil, err
	}
	var view repoView
	if err := json.Unmarshal(output, &view); err != nil {
		return nil, fmt.Errorf("failed to parse repository view: %w", err)
	}
	return repoFromView(&view), nil
}

// Token implements forge.Client by asking gh for its stored token.
func (c *Client) Token(ctx context.Context) (string, error) {
	output, err := c.run(ctx, "auth", "token")
	if err != nil {
		return "", fmt.Errorf("failed to read gh auth token: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

func repoFromView(view *repoView) *forge.Repo {
	fullName := view.Owner.Login + "/" + view.Name
	return &forge.Repo{
		Name:     view.Name,
		FullName: fullName,
		CloneURL: "https://github.com/" + fullName + ".git",
		HTMLURL:  view.URL,
	}
}
