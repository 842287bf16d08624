package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalExecutor_RunsCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	dir := t.TempDir()
	e := NewLocalExecutor(`sh -c 'echo "$OVERSEER_FEATURE_ID $OVERSEER_RECOVERY" > result.txt'`, nil)

	err := e.Execute(context.Background(), dir, "feat-9", Options{IsRecovery: true})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "feat-9 true\n", string(data))
}

func TestLocalExecutor_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	e := NewLocalExecutor("sh -c 'exit 3'", nil)
	err := e.Execute(context.Background(), t.TempDir(), "feat-1", Options{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "feat-1")
}

func TestLocalExecutor_NoCommand(t *testing.T) {
	e := NewLocalExecutor("", nil)
	assert.Error(t, e.Execute(context.Background(), t.TempDir(), "f", Options{}))
}
