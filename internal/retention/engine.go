// Package retention deletes expired backup artifacts under a single
// operator-pinned root. Every run passes through layered gates before the
// first mutation: the enabled kill-switch, the path safety validator and
// the dry-run guard. Deletion failures are per-candidate and never abort
// the run.
package retention

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pgkeep/pgkeep/internal/capture"
	"github.com/pgkeep/pgkeep/internal/config"
	"github.com/pgkeep/pgkeep/internal/fs"
)

// Summary reports what one retention run did (or, in dry-run mode, would
// have done).
type Summary struct {
	Candidates     int
	Deleted        int
	ReclaimedBytes int64
	DryRun         bool
}

// Engine applies the retention policy to the working root. Stateless
// between runs.
type Engine struct {
	policy config.RetentionConfig
	root   string
	fs     fs.FS
	log    zerolog.Logger
	now    func() time.Time
}

// New builds an engine over root. The policy's allowed root is compared
// against root at run time; they are supplied independently on purpose.
func New(policy config.RetentionConfig, root string, filesystem fs.FS, log zerolog.Logger) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Engine{
		policy: policy,
		root:   root,
		fs:     filesystem,
		log:    log,
		now:    time.Now,
	}
}

// WithClock overrides the time source used for cutoff computation.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Run executes one retention pass. The returned error is non-nil only for
// fatal conditions (SafetyError); absence of work and individual deletion
// failures are reported through the summary and the log.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	log := e.log.With().
		Str("engine", "retention").
		Str("run_id", uuid.NewString()).
		Logger()

	if !e.policy.Enabled {
		log.Info().Msg("retention disabled, touching nothing")
		return Summary{}, nil
	}

	root, err := ValidateRoot(e.fs, e.root, e.policy.AllowedRoot)
	if err != nil {
		log.Error().Err(err).Msg("retention aborted before enumeration")
		return Summary{}, err
	}

	cutoff := ComputeCutoff(e.policy.Unit, e.policy.Period, e.now())
	log.Info().
		Str("unit", string(e.policy.Unit)).
		Int("period", e.policy.Period).
		Time("cutoff", cutoff.Instant).
		Bool("dry_run", e.policy.DryRun).
		Msg("starting retention")

	// The guard substitutes recorded would-perform operations for every
	// mutation while leaving all read-side work identical.
	target := e.fs
	if e.policy.DryRun {
		target = fs.NewDryRun(e.fs)
	}

	candidates, err := e.collect(root, cutoff, log)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Candidates: len(candidates), DryRun: e.policy.DryRun}
	for _, cand := range candidates {
		if ctx.Err() != nil {
			log.Warn().Msg("retention interrupted")
			break
		}
		if err := target.Remove(cand.Path); err != nil {
			// Local to this candidate; the rest of the run continues.
			log.Error().Err(err).Str("artifact", cand.Path).Msg("deleting artifact failed")
			continue
		}
		summary.Deleted++
		summary.ReclaimedBytes += cand.Size
		log.Debug().
			Str("artifact", cand.Path).
			Bool("dry_run", e.policy.DryRun).
			Msg(e.verb() + " artifact")
	}

	e.sweepEmptyDirs(root, target, log)

	log.Info().
		Int("candidates", summary.Candidates).
		Int("deleted", summary.Deleted).
		Str("reclaimed", humanize.IBytes(uint64(summary.ReclaimedBytes))).
		Bool("dry_run", summary.DryRun).
		Msg("retention complete")

	return summary, nil
}

func (e *Engine) verb() string {
	if e.policy.DryRun {
		return "would delete"
	}
	return "deleted"
}

// collect enumerates deletion candidates under the validated root.
func (e *Engine) collect(root string, cutoff Cutoff, log zerolog.Logger) ([]fs.FileInfo, error) {
	switch e.policy.Unit {
	case config.UnitMinutes:
		// Fine-grained mode: every artifact anywhere under the root,
		// strictly older than the cutoff instant.
		files, err := e.fs.WalkSuffix(root, capture.ArtifactSuffix)
		if err != nil {
			return nil, &SafetyError{Check: "enumerate", Reason: err.Error()}
		}
		var out []fs.FileInfo
		for _, f := range files {
			if f.MTime.Before(cutoff.Instant) {
				out = append(out, f)
			}
		}
		return out, nil

	case config.UnitDays:
		// Coarse mode: the whole day bucket matching the cutoff's day key
		// is one deletion unit, with no per-file age re-check.
		bucket := filepath.Join(root, cutoff.DayKey)
		if _, err := e.fs.Stat(bucket); err != nil {
			if os.IsNotExist(err) {
				log.Info().Str("bucket", bucket).Msg("day bucket absent, nothing to delete")
				return nil, nil
			}
			return nil, &SafetyError{Check: "enumerate", Reason: err.Error()}
		}
		files, err := e.fs.WalkSuffix(bucket, capture.ArtifactSuffix)
		if err != nil {
			return nil, &SafetyError{Check: "enumerate", Reason: err.Error()}
		}
		return files, nil
	}

	return nil, nil
}

// sweepEmptyDirs removes directories left empty by candidate deletion,
// children first. Only zero-entry directories are ever removed; a
// directory that still has entries is simply skipped.
func (e *Engine) sweepEmptyDirs(root string, target fs.FS, log zerolog.Logger) {
	dirs, err := e.fs.Subdirs(root)
	if err != nil {
		log.Warn().Err(err).Msg("empty directory sweep: enumeration failed")
		return
	}

	for _, dir := range dirs {
		removed, err := target.RemoveDirIfEmpty(dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("empty directory sweep failed")
			continue
		}
		if removed {
			log.Debug().
				Str("dir", dir).
				Bool("dry_run", e.policy.DryRun).
				Msg(e.verb() + " empty directory")
		}
	}
}
