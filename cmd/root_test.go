package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/license-audit/internal/cache"
)

// fakePip answers "freeze" and "show <pkg>" the way pip does for a tiny
// environment: alpha's license is read from the alpha-license file next to
// the script, beta cannot be shown, gamma has an empty Home-page
const fakePip = `#!/bin/sh
case "$1" in
freeze)
	printf 'alpha==1.0\n-e git+https://example.com/repo.git#egg=local\nbeta==2.3\ngamma==0.5\n'
	;;
show)
	case "$2" in
	alpha)
		printf 'Name: alpha\nVersion: 1.0\nLicense: %s\nHome-page: http://a.example\n' "$(cat "$(dirname "$0")/alpha-license")"
		;;
	gamma)
		printf 'Name: gamma\nVersion: 0.5\nLicense: BSD\nHome-page: \n'
		;;
	*)
		echo "WARNING: Package(s) not found: $2" >&2
		exit 1
		;;
	esac
	;;
*)
	exit 2
	;;
esac
`

func writeFakePip(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake pip is a shell script")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "fakepip")
	require.NoError(t, os.WriteFile(path, []byte(fakePip), 0755))
	setAlphaLicense(t, path, "MIT")
	return path
}

// setAlphaLicense changes the license the fake pip reports for alpha
func setAlphaLicense(t *testing.T, pip, license string) {
	t.Helper()
	file := filepath.Join(filepath.Dir(pip), "alpha-license")
	require.NoError(t, os.WriteFile(file, []byte(license), 0644))
}

func alphaLicense(t *testing.T, report string) string {
	t.Helper()
	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(report), &got))
	return got["alpha"]["license"]
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_JSONScenario(t *testing.T) {
	pip := writeFakePip(t)
	project := t.TempDir()

	code, stdout, stderr := execute(t, project, "--pip", pip, "--output_format", "json")
	require.Equal(t, 0, code, stderr)

	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, map[string]map[string]string{
		"alpha": {"version": "1.0", "license": "MIT", "homepage": "http://a.example"},
		"beta":  {"version": "2.3", "license": "UNKNOWN"},
		"gamma": {"version": "0.5", "license": "BSD", "homepage": ""},
	}, got)
	assert.Contains(t, stdout, `"homepage": ""`)
	assert.Contains(t, stderr, "failed to retrieve license information")
}

func TestRun_TextDefault(t *testing.T) {
	pip := writeFakePip(t)

	code, stdout, _ := execute(t, t.TempDir(), "--pip", pip)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "License Compliance Report:\n")
	assert.Contains(t, stdout, "Package: beta\n  Version: 2.3\n  License: UNKNOWN\n  Homepage: UNKNOWN\n")
}

func TestRun_InvalidProjectPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	code, stdout, stderr := execute(t, missing)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "invalid project path")
}

func TestRun_EnumerationFailure(t *testing.T) {
	code, stdout, stderr := execute(t, t.TempDir(), "--pip", "license-audit-no-such-pip")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "failed to enumerate dependencies")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no project path", args: nil},
		{name: "bad log level", args: []string{".", "--log_level", "TRACE"}},
		{name: "bad output format", args: []string{".", "--output_format", "xml"}},
		{name: "zero jobs", args: []string{".", "--jobs", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := execute(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
		})
	}
}

func TestRun_OutputFileAndFailOnUnknown(t *testing.T) {
	pip := writeFakePip(t)
	out := filepath.Join(t.TempDir(), "report.md")

	code, stdout, stderr := execute(t, t.TempDir(), "--pip", pip,
		"--output_format", "markdown", "-o", out, "--fail-on-unknown")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "unknown license")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# License Compliance Report")
}

func TestRun_ProjectConfigFile(t *testing.T) {
	pip := writeFakePip(t)
	project := t.TempDir()
	config := "pip = [\"" + pip + "\"]\noutput_format = \"json\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(project, ".license-audit.toml"), []byte(config), 0644))

	code, stdout, stderr := execute(t, project)
	require.Equal(t, 0, code, stderr)
	assert.True(t, json.Valid([]byte(stdout)))

	// Flags override the file
	code, stdout, _ = execute(t, project, "--output_format", "text")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "License Compliance Report:")
}

func TestRun_NoCacheByDefault(t *testing.T) {
	pip := writeFakePip(t)
	project := t.TempDir()

	code, stdout, stderr := execute(t, project, "--pip", pip, "--output_format", "json")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "MIT", alphaLicense(t, stdout))

	setAlphaLicense(t, pip, "Apache-2.0")

	code, stdout, stderr = execute(t, project, "--pip", pip, "--output_format", "json")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Apache-2.0", alphaLicense(t, stdout), "metadata must not persist across runs")
}

func TestRun_CacheAndClear(t *testing.T) {
	pip := writeFakePip(t)
	project := t.TempDir()
	cacheDir := t.TempDir()
	args := []string{project, "--pip", pip, "--output_format", "json", "--cache", "--cache-dir", cacheDir}

	code, stdout, stderr := execute(t, args...)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "MIT", alphaLicense(t, stdout))

	setAlphaLicense(t, pip, "Apache-2.0")

	code, stdout, stderr = execute(t, args...)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "MIT", alphaLicense(t, stdout), "cached entry is served")

	// alpha and gamma were cached; the failed beta lookup was not
	code, stdout, stderr = execute(t, "cache", "clear", "--cache-dir", cacheDir)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Cleared 2 cached entries\n", stdout)

	code, stdout, stderr = execute(t, args...)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Apache-2.0", alphaLicense(t, stdout))
}

func TestRun_CacheCommand(t *testing.T) {
	code, stdout, _ := execute(t, "cache", "path")
	require.Equal(t, 0, code)
	assert.Equal(t, cache.DefaultDir()+"\n", stdout)

	code, stdout, _ = execute(t, "cache", "clear", "--cache-dir", t.TempDir(), "--log_level", "TRACE")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)

	code, stdout, stderr := execute(t, "cache", "clear", "--cache-dir", t.TempDir(), "--log_level", "DEBUG")
	require.Equal(t, 0, code)
	assert.Equal(t, "Cleared 0 cached entries\n", stdout)
	assert.Contains(t, stderr, "cache cleared")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]log.Level{
		"DEBUG":    log.DebugLevel,
		"info":     log.InfoLevel,
		"WARNING":  log.WarnLevel,
		"ERROR":    log.ErrorLevel,
		"CRITICAL": log.FatalLevel,
	}
	for name, want := range tests {
		got, err := parseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	ctx := withLogger(context.Background(), logger)
	assert.Same(t, logger, loggerFromContext(ctx))
	assert.NotNil(t, loggerFromContext(context.Background()))

	loggerFromContext(ctx).Debug("hidden")
	assert.Zero(t, buf.Len())
	loggerFromContext(ctx).Info("shown")
	assert.Contains(t, buf.String(), "shown")
}
