package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Client queries git by shelling out to the git binary.
type Client struct{}

// NewClient creates a new Git client.
func NewClient() *Client {
	return &Client{}
}

var _ BranchOracle = (*Client)(nil)

const commandTimeout = 30 * time.Second

func (c *Client) output(ctx context.Context, dir string, args ...string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var out, errBuf bytes.Buffer
	cmd := exec.CommandContext(cmdCtx, "git", args...)
	cmd.Dir = dir
	// Enforce no prompting
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=/bin/true")
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w\nStderr: %s", args[0], err, errBuf.String())
	}
	return out.String(), nil
}

// ListBranches returns the set of local branch names in the repository.
func (c *Client) ListBranches(ctx context.Context, repoPath string) (map[string]struct{}, error) {
	out, err := c.output(ctx, repoPath, "for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}

	branches := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name != "" {
			branches[name] = struct{}{}
		}
	}
	return branches, nil
}

// CurrentBranch returns the checked-out branch name. Detached HEAD yields an
// empty string, not an error.
func (c *Client) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	out, err := c.output(ctx, repoPath, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
