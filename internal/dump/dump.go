// Package dump invokes the external database dump binary. The capture
// engine only consumes its exit status and the bytes written to the
// output path; diagnostic output is forwarded unparsed to a sink.
package dump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"
)

// Request describes one dump invocation. Credentials are deliberately
// absent: pg_dump reads them from its ambient environment (PGPASSWORD,
// ~/.pgpass).
type Request struct {
	Database   string
	Host       string
	Port       int
	User       string
	OutputPath string
}

type Result struct {
	ExitStatus int
	Duration   time.Duration
}

// Runner produces a dump of the source database at the requested path.
type Runner interface {
	Dump(ctx context.Context, req Request) (Result, error)
}

// PGDump shells out to pg_dump with the custom binary format.
type PGDump struct {
	// Binary overrides the executable name; empty means "pg_dump".
	Binary string

	// Stderr receives the diagnostic stream. Nil discards it.
	Stderr io.Writer
}

var _ Runner = (*PGDump)(nil)

// Dump runs the binary and reports its exit status. A non-zero exit is
// not an error here; the caller's validation gate decides what it means.
// A returned error means the process could not be started at all.
func (p *PGDump) Dump(ctx context.Context, req Request) (Result, error) {
	binary := p.Binary
	if binary == "" {
		binary = "pg_dump"
	}

	cmd := exec.CommandContext(ctx, binary, buildArgs(req)...)
	cmd.Stderr = p.Stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitStatus: exitErr.ExitCode(), Duration: elapsed}, nil
		}
		return Result{ExitStatus: -1, Duration: elapsed}, fmt.Errorf("running %s: %w", binary, err)
	}

	return Result{ExitStatus: 0, Duration: elapsed}, nil
}

// buildArgs assembles the pg_dump command line: custom binary format,
// connection settings when present, output path, then the database name.
func buildArgs(req Request) []string {
	args := []string{"-Fc"}
	if req.Host != "" {
		args = append(args, "-h", req.Host)
	}
	if req.Port > 0 {
		args = append(args, "-p", strconv.Itoa(req.Port))
	}
	if req.User != "" {
		args = append(args, "-U", req.User)
	}
	return append(args, "-f", req.OutputPath, req.Database)
}
