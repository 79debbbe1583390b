package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgkeep/pgkeep/internal/config"
	"github.com/pgkeep/pgkeep/internal/dump"
	"github.com/pgkeep/pgkeep/internal/fs"
)

// fakeRunner stands in for pg_dump: it writes a payload to the requested
// output path and reports a canned exit status.
type fakeRunner struct {
	exit     int
	payload  []byte
	spawnErr error
	requests []dump.Request
}

func (f *fakeRunner) Dump(_ context.Context, req dump.Request) (dump.Result, error) {
	f.requests = append(f.requests, req)
	if f.spawnErr != nil {
		return dump.Result{ExitStatus: -1}, f.spawnErr
	}
	if f.payload != nil {
		if err := os.WriteFile(req.OutputPath, f.payload, 0o644); err != nil {
			return dump.Result{}, err
		}
	}
	return dump.Result{ExitStatus: f.exit}, nil
}

var captureAt = time.Date(2026, 1, 31, 2, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, runner dump.Runner) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Source:      config.SourceConfig{Database: "app", Host: "127.0.0.1", Port: 5432},
		Destination: config.DestinationConfig{Root: root, Prefix: "app", StaleStagingAfter: 24 * time.Hour},
	}
	engine := New(cfg, runner, fs.New(), zerolog.Nop()).
		WithClock(func() time.Time { return captureAt })
	return engine, root
}

func finalPath(root string) string {
	return filepath.Join(root, "2026-01-31", "app-2026-01-31_02-00-00.backup")
}

func stagingPath(root string) string {
	return filepath.Join(root, "2026-01-31", ".app-2026-01-31_02-00-00.backup.tmp")
}

func TestRunPublishesArtifact(t *testing.T) {
	runner := &fakeRunner{payload: []byte("dump bytes")}
	engine, root := newTestEngine(t, runner)

	artifact, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, finalPath(root), artifact.Path)
	assert.Equal(t, int64(len("dump bytes")), artifact.Size)
	assert.Equal(t, captureAt, artifact.CreatedAt)
	assert.Equal(t, "app", artifact.Database)

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, "dump bytes", string(data))

	_, err = os.Stat(stagingPath(root))
	assert.True(t, os.IsNotExist(err), "staging artifact must not outlive the run")

	require.Len(t, runner.requests, 1)
	assert.Equal(t, stagingPath(root), runner.requests[0].OutputPath)
	assert.Equal(t, "app", runner.requests[0].Database)
}

func TestRunNonZeroExitFailsAndCleansUp(t *testing.T) {
	runner := &fakeRunner{exit: 1, payload: []byte("partial")}
	engine, root := newTestEngine(t, runner)

	_, err := engine.Run(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, failure.ExitStatus)

	_, err = os.Stat(finalPath(root))
	assert.True(t, os.IsNotExist(err), "no final artifact on failure")
	_, err = os.Stat(stagingPath(root))
	assert.True(t, os.IsNotExist(err), "staging artifact removed on failure")
}

func TestRunRejectsEmptyArtifact(t *testing.T) {
	// Exit status zero with a zero-size file: silent truncation.
	runner := &fakeRunner{exit: 0, payload: []byte{}}
	engine, root := newTestEngine(t, runner)

	_, err := engine.Run(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 0, failure.ExitStatus)

	_, err = os.Stat(finalPath(root))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(stagingPath(root))
	assert.True(t, os.IsNotExist(err))
}

func TestRunFailsClosedOnNameCollision(t *testing.T) {
	runner := &fakeRunner{payload: []byte("new dump")}
	engine, root := newTestEngine(t, runner)

	require.NoError(t, os.MkdirAll(filepath.Dir(finalPath(root)), 0o755))
	require.NoError(t, os.WriteFile(finalPath(root), []byte("existing"), 0o644))

	_, err := engine.Run(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.True(t, errors.Is(err, fs.ErrExists))

	// the existing artifact was never replaced
	data, err := os.ReadFile(finalPath(root))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
}

func TestRunReportsSpawnFailure(t *testing.T) {
	runner := &fakeRunner{spawnErr: errors.New("executable file not found")}
	engine, root := newTestEngine(t, runner)

	_, err := engine.Run(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, -1, failure.ExitStatus)

	_, err = os.Stat(finalPath(root))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSweepsStaleStaging(t *testing.T) {
	runner := &fakeRunner{payload: []byte("dump")}
	engine, root := newTestEngine(t, runner)

	oldDir := filepath.Join(root, "2026-01-29")
	require.NoError(t, os.MkdirAll(oldDir, 0o755))
	stale := filepath.Join(oldDir, ".app-2026-01-29_02-00-00.backup.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("orphan"), 0o644))
	staleTime := captureAt.Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, staleTime, staleTime))

	fresh := filepath.Join(oldDir, ".app-2026-01-29_23-00-00.backup.tmp")
	require.NoError(t, os.WriteFile(fresh, []byte("recent"), 0o644))
	freshTime := captureAt.Add(-time.Hour)
	require.NoError(t, os.Chtimes(fresh, freshTime, freshTime))

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale orphan swept")
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh staging file left alone")
}

func TestArtifactPaths(t *testing.T) {
	p := ArtifactPaths("/data/backups", "app", captureAt)

	assert.Equal(t, "/data/backups/2026-01-31", p.Dir)
	assert.Equal(t, "/data/backups/2026-01-31/app-2026-01-31_02-00-00.backup", p.Final)
	assert.Equal(t, "/data/backups/2026-01-31/.app-2026-01-31_02-00-00.backup.tmp", p.Staging)

	// staging must never match an enumeration for final artifacts
	assert.True(t, strings.HasPrefix(filepath.Base(p.Staging), "."))
	assert.False(t, strings.HasSuffix(p.Staging, ArtifactSuffix))
	assert.True(t, strings.HasSuffix(p.Staging, StagingSuffix))
}
