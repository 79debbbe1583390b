package dump

import (
	"bytes"

	"github.com/rs/zerolog"
)

// LogWriter forwards the dump binary's diagnostic stream to the logger,
// one line per event. Content is passed through untouched.
type LogWriter struct {
	Log zerolog.Logger
}

func (w *LogWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		w.Log.Warn().Str("stream", "pg_dump").Msg(string(line))
	}
	return len(p), nil
}
