package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"phylovi.dev/treevi/internal/errors"
	"phylovi.dev/treevi/testhelpers"
)

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCmd("test", "none", "today")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestBenchmarkFlagDefaults(t *testing.T) {
	cmd := newBenchmarkCmd()

	model, err := cmd.Flags().GetString("model")
	require.NoError(t, err)
	require.Equal(t, "lognormal", model)

	optimizer, err := cmd.Flags().GetString("optimizer")
	require.NoError(t, err)
	require.Equal(t, "simple", optimizer)

	stepCount, err := cmd.Flags().GetInt("step-count")
	require.NoError(t, err)
	require.Equal(t, 5, stepCount)

	particleCount, err := cmd.Flags().GetInt("particle-count")
	require.NoError(t, err)
	require.Equal(t, 100, particleCount)

	outPrefix, err := cmd.Flags().GetString("out-prefix")
	require.NoError(t, err)
	require.Empty(t, outPrefix)
}

func TestBenchmarkRequiresDataPath(t *testing.T) {
	err := runCommand(t, "benchmark")
	require.Error(t, err)
}

func TestBenchmarkRejectsUnknownModel(t *testing.T) {
	scene := testhelpers.NewScene(t)
	err := runCommand(t, "benchmark", scene.Dir, "--model", "nope", "--step-count", "1", "--particle-count", "5")
	require.ErrorIs(t, err, errors.ErrUnknownModel)
}

func TestBenchmarkRejectsUnknownOptimizer(t *testing.T) {
	scene := testhelpers.NewScene(t)
	err := runCommand(t, "benchmark", scene.Dir, "--optimizer", "nope", "--step-count", "1", "--particle-count", "5")
	require.ErrorIs(t, err, errors.ErrUnknownOptimizer)
}

func TestBenchmarkWritesArtifactsWithOutPrefix(t *testing.T) {
	scene := testhelpers.NewScene(t)
	prefix := filepath.Join(t.TempDir(), "run")

	err := runCommand(t, "benchmark", scene.Dir,
		"--step-count", "2",
		"--particle-count", "5",
		"--seed", "42",
		"--out-prefix", prefix)
	require.NoError(t, err)

	require.FileExists(t, prefix+"_opt_trace.csv")
	require.FileExists(t, prefix+"_fitting_results.csv")
}

func TestRootCommandVersion(t *testing.T) {
	cmd := NewRootCmd("1.2.3", "abcdef", "2026-01-01")
	require.Equal(t, "1.2.3 (abcdef, 2026-01-01)", cmd.Version)
}
