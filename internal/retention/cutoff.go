package retention

import (
	"time"

	"github.com/pgkeep/pgkeep/internal/capture"
	"github.com/pgkeep/pgkeep/internal/config"
)

// Cutoff is the instant before which artifacts are eligible for deletion.
// In days mode it also carries the day key of the single directory bucket
// targeted for removal.
type Cutoff struct {
	Instant time.Time
	DayKey  string
}

// ComputeCutoff applies the retention window with one extra unit of
// slack: an artifact created exactly period units ago is retained, never
// borderline-deleted. The boundary is exclusive of the window.
func ComputeCutoff(unit config.RetentionUnit, period int, now time.Time) Cutoff {
	switch unit {
	case config.UnitMinutes:
		return Cutoff{Instant: now.Add(-time.Duration(period+1) * time.Minute)}
	case config.UnitDays:
		t := now.AddDate(0, 0, -(period + 1))
		return Cutoff{Instant: t, DayKey: t.Format(capture.DayKeyLayout)}
	default:
		// Unreachable for a validated config; config.Validate rejects
		// every other unit before an engine is built.
		panic("retention: unrecognized unit " + string(unit))
	}
}
