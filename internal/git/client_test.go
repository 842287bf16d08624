package git

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	run("commit", "--allow-empty", "-m", "init")
	return dir
}

func TestClient_Branches(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := initRepo(t)
	ctx := context.Background()
	c := NewClient()

	cmd := exec.Command("git", "branch", "feature-1")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	branches, err := c.ListBranches(ctx, dir)
	require.NoError(t, err)
	assert.Contains(t, branches, "main")
	assert.Contains(t, branches, "feature-1")
	assert.NotContains(t, branches, "deleted-branch")

	current, err := c.CurrentBranch(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "main", current)
}

func TestClient_ListBranchesBadRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	c := NewClient()
	_, err := c.ListBranches(context.Background(), t.TempDir())
	assert.Error(t, err)
}
