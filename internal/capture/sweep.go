package capture

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// sweepStaleStaging removes staging files orphaned by a killed prior run.
// Only files older than the configured threshold are touched, so a
// concurrent capture's staging file (if the scheduler ever overlaps runs)
// is left alone. Failures are logged and do not affect the current run.
func (e *Engine) sweepStaleStaging(log zerolog.Logger, now time.Time) {
	if e.stale <= 0 {
		return
	}

	files, err := e.fs.WalkSuffix(e.dest.Root, StagingSuffix)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("stale staging sweep: enumeration failed")
		}
		return
	}

	cutoff := now.Add(-e.stale)
	for _, f := range files {
		if !f.MTime.Before(cutoff) {
			continue
		}
		if err := e.fs.Remove(f.Path); err != nil {
			log.Warn().Err(err).Str("staging", f.Path).Msg("stale staging sweep: remove failed")
			continue
		}
		log.Info().
			Str("staging", f.Path).
			Time("mtime", f.MTime).
			Msg("removed orphaned staging artifact")
	}
}
