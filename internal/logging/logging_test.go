package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud", Format: "json"})
	require.Error(t, err)
}

func TestErrorSinkReceivesOnlyErrors(t *testing.T) {
	errFile := filepath.Join(t.TempDir(), "errors.log")
	logger, closeLogs, err := New(Config{Level: "info", Format: "json", ErrorFile: errFile})
	require.NoError(t, err)

	logger.Info().Msg("routine progress")
	logger.Error().Msg("something broke")
	require.NoError(t, closeLogs())

	data, err := os.ReadFile(errFile)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "something broke")
	assert.NotContains(t, content, "routine progress")
}

func TestErrorSinkAppends(t *testing.T) {
	errFile := filepath.Join(t.TempDir(), "errors.log")

	for i := 0; i < 2; i++ {
		logger, closeLogs, err := New(Config{Level: "info", Format: "json", ErrorFile: errFile})
		require.NoError(t, err)
		logger.Error().Int("run", i).Msg("failed")
		require.NoError(t, closeLogs())
	}

	data, err := os.ReadFile(errFile)
	require.NoError(t, err)
	lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1
	assert.Equal(t, 2, lines, "error sink is append-only across runs")
}

func TestCloserSafeWithoutErrorFile(t *testing.T) {
	_, closeLogs, err := New(Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NoError(t, closeLogs())
}
