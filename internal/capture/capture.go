// Package capture implements the atomic backup-capture protocol: dump to
// a hidden staging file, validate exit status and size, then publish with
// an atomic rename. A reader of the artifact tree can never observe a
// partial artifact under a final name.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pgkeep/pgkeep/internal/config"
	"github.com/pgkeep/pgkeep/internal/dump"
	"github.com/pgkeep/pgkeep/internal/fs"
)

// Artifact is one completed, published backup.
type Artifact struct {
	Path      string
	Size      int64
	CreatedAt time.Time
	Database  string
}

// Failure reports an unsuccessful capture run. The staging file has been
// cleaned up by the time it is returned; nothing was written under the
// final name.
type Failure struct {
	ExitStatus int
	Reason     string
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("capture failed (exit %d): %s: %v", f.ExitStatus, f.Reason, f.Err)
	}
	return fmt.Sprintf("capture failed (exit %d): %s", f.ExitStatus, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Engine runs one capture per invocation. It is stateless between runs;
// all state lives in the destination tree.
type Engine struct {
	source config.SourceConfig
	dest   config.DestinationConfig
	stale  time.Duration
	fs     fs.FS
	runner dump.Runner
	log    zerolog.Logger
	now    func() time.Time
}

func New(cfg *config.Config, runner dump.Runner, filesystem fs.FS, log zerolog.Logger) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Engine{
		source: cfg.Source,
		dest:   cfg.Destination,
		stale:  cfg.Destination.StaleStagingAfter,
		fs:     filesystem,
		runner: runner,
		log:    log,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Tests use it to pin artifact names.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Run performs one capture. On success the returned artifact is reachable
// at its final path and complete. On failure the error is a *Failure and
// no file exists under the final name.
func (e *Engine) Run(ctx context.Context) (Artifact, error) {
	started := e.now()
	log := e.log.With().
		Str("engine", "capture").
		Str("run_id", uuid.NewString()).
		Str("database", e.source.Database).
		Logger()

	paths := ArtifactPaths(e.dest.Root, e.dest.Prefix, started)
	log.Info().Str("staging", paths.Staging).Msg("starting capture")

	e.sweepStaleStaging(log, started)

	if err := e.fs.MkdirAll(paths.Dir); err != nil {
		return Artifact{}, &Failure{ExitStatus: -1, Reason: "creating date directory", Err: err}
	}

	res, err := e.runner.Dump(ctx, dump.Request{
		Database:   e.source.Database,
		Host:       e.source.Host,
		Port:       e.source.Port,
		User:       e.source.User,
		OutputPath: paths.Staging,
	})
	if err != nil {
		return Artifact{}, e.fail(log, paths, &Failure{ExitStatus: res.ExitStatus, Reason: "invoking dump", Err: err})
	}

	// Validation gate: exit status and artifact size are judged
	// independently. A zero-size file with a zero exit status is still a
	// failure; it means the dump was silently truncated.
	if res.ExitStatus != 0 {
		return Artifact{}, e.fail(log, paths, &Failure{ExitStatus: res.ExitStatus, Reason: "dump exited non-zero"})
	}

	st, err := e.fs.Stat(paths.Staging)
	if err != nil {
		return Artifact{}, e.fail(log, paths, &Failure{ExitStatus: 0, Reason: "staging artifact missing", Err: err})
	}
	if st.Size == 0 {
		return Artifact{}, e.fail(log, paths, &Failure{ExitStatus: 0, Reason: "staging artifact is empty"})
	}

	if err := e.fs.Rename(ctx, paths.Staging, paths.Final); err != nil {
		return Artifact{}, e.fail(log, paths, &Failure{ExitStatus: 0, Reason: "publishing artifact", Err: err})
	}

	log.Info().
		Str("artifact", paths.Final).
		Str("size", humanize.IBytes(uint64(st.Size))).
		Dur("dump_duration", res.Duration).
		Msg("capture complete")

	return Artifact{
		Path:      paths.Final,
		Size:      st.Size,
		CreatedAt: started,
		Database:  e.source.Database,
	}, nil
}

// fail cleans up the staging file (absence is fine) and logs one error
// line for the run.
func (e *Engine) fail(log zerolog.Logger, paths Paths, f *Failure) error {
	if err := e.fs.Remove(paths.Staging); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("staging", paths.Staging).Msg("could not remove staging artifact")
	}
	log.Error().
		Int("exit_status", f.ExitStatus).
		Err(f.Err).
		Msg("capture failed: " + f.Reason)
	return f
}
