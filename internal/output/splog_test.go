package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSplogWithConfigWritesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "treevi.log")

	splog, err := NewSplogWithConfig(logPath)
	require.NoError(t, err)
	splog.Info("fit started with %d particles", 100)
	splog.Warn("step size floor reached")
	require.NoError(t, splog.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "fit started with 100 particles")
	require.Contains(t, string(data), "step size floor reached")
}

func TestSplogDebugGatedByEnvironment(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "treevi.log")

	splog, err := NewSplogWithConfig(logPath)
	require.NoError(t, err)
	splog.Debug("sampling topology %d", 0)
	require.NoError(t, splog.Close())

	// File logging always records debug lines even when the console does not.
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "sampling topology 0")
}

func TestLumberjackConfigFromEnvironment(t *testing.T) {
	t.Setenv("TREEVI_LOG_MAX_SIZE", "7")
	t.Setenv("TREEVI_LOG_MAX_BACKUPS", "3")
	t.Setenv("TREEVI_LOG_MAX_AGE", "14")

	logger := createLumberjackLogger(filepath.Join(t.TempDir(), "treevi.log"))
	require.Equal(t, 7, logger.MaxSize)
	require.Equal(t, 3, logger.MaxBackups)
	require.Equal(t, 14, logger.MaxAge)
}
