package runner

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesStdout(t *testing.T) {
	requireShell(t)

	out, err := NewExecRunner().Run(context.Background(), t.TempDir(), "sh", "-c", "echo alpha==1.0; echo noise >&2")
	require.NoError(t, err)
	assert.Equal(t, "alpha==1.0\n", string(out))
}

func TestExecRunner_UsesWorkingDirectory(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	out, err := NewExecRunner().Run(context.Background(), dir, "sh", "-c", "pwd")
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(string(out)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)

	_, err := NewExecRunner().Run(context.Background(), t.TempDir(), "sh", "-c", "echo 'not installed' >&2; exit 3")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "not installed", exitErr.Stderr)
	assert.Contains(t, exitErr.Error(), "exit status 3")
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	_, err := NewExecRunner().Run(context.Background(), t.TempDir(), "license-audit-no-such-tool")
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
	assert.Contains(t, err.Error(), "failed to run")
}

func TestExecRunner_ContextDeadline(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewExecRunner().Run(ctx, t.TempDir(), "sh", "-c", "exec sleep 5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
