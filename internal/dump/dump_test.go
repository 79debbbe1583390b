package dump

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBuildArgs(t *testing.T) {
	args := buildArgs(Request{
		Database:   "app",
		Host:       "db.internal",
		Port:       5433,
		User:       "backup",
		OutputPath: "/data/backups/2026-01-31/.app.backup.tmp",
	})

	assert.Equal(t, []string{
		"-Fc",
		"-h", "db.internal",
		"-p", "5433",
		"-U", "backup",
		"-f", "/data/backups/2026-01-31/.app.backup.tmp",
		"app",
	}, args)
}

func TestBuildArgsOmitsEmptyConnectionSettings(t *testing.T) {
	args := buildArgs(Request{Database: "app", OutputPath: "/tmp/out"})
	assert.Equal(t, []string{"-Fc", "-f", "/tmp/out", "app"}, args)
}

func TestLogWriterForwardsLines(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	w := &LogWriter{Log: logger}

	n, err := w.Write([]byte("pg_dump: warning one\npg_dump: warning two\n\n"))
	assert.NoError(t, err)
	assert.Equal(t, 43, n)

	out := buf.String()
	assert.Contains(t, out, "warning one")
	assert.Contains(t, out, "warning two")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}
