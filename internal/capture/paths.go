package capture

import (
	"fmt"
	"path/filepath"
	"time"
)

const (
	// DayKeyLayout names the date-partitioned directory one capture day
	// writes into. The retention engine targets the same layout.
	DayKeyLayout = "2006-01-02"

	timeKeyLayout = "15-04-05"

	// ArtifactSuffix marks completed, trustworthy artifacts. Enumeration
	// anywhere in the system filters on this suffix.
	ArtifactSuffix = ".backup"

	// StagingSuffix marks in-progress artifacts. Staging names are also
	// dot-prefixed, so neither a suffix scan nor a glob for visible files
	// can ever observe one.
	StagingSuffix = ".backup.tmp"
)

// Paths holds the three locations one capture run touches.
type Paths struct {
	Dir     string // date-partitioned directory
	Final   string // published artifact
	Staging string // hidden in-progress file
}

// ArtifactPaths derives the directory, final and staging paths for a
// capture starting at the given instant (second precision).
func ArtifactPaths(root, prefix string, at time.Time) Paths {
	day := at.Format(DayKeyLayout)
	name := fmt.Sprintf("%s-%s_%s%s", prefix, day, at.Format(timeKeyLayout), ArtifactSuffix)
	dir := filepath.Join(root, day)

	return Paths{
		Dir:     dir,
		Final:   filepath.Join(dir, name),
		Staging: filepath.Join(dir, "."+name+".tmp"),
	}
}
