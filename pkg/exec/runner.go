// Package exec runs external probe commands with a bounded runtime and
// bounded output.
package exec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// Result holds the outcome of a finished command.
type Result struct {
	// Output is the combined stdout and stderr, capped at MaxOutput.
	Output string
	// Code is the exit status.
	Code int
	// Truncated reports whether Output was capped.
	Truncated bool
}

// Runner executes commands. The zero value runs without limits.
type Runner struct {
	Timeout   time.Duration
	MaxOutput int
}

// Run executes name with args and captures its combined output. A
// non-zero exit status is reported through Result.Code, not through the
// error value. The error is reserved for commands that never ran or
// were cut off: missing binaries, context cancellation, the Runner
// timeout.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if name == "" {
		return nil, errors.New("command is required")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	buf := &limitedBuffer{limit: r.MaxOutput}
	command := exec.CommandContext(ctx, name, args...)
	command.Stdout = buf
	command.Stderr = buf

	err := command.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		code = exitErr.ExitCode()
	}
	return &Result{Output: buf.String(), Code: code, Truncated: buf.truncated}, nil
}

// IsNotFound reports whether err means the binary does not exist on PATH.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.limit <= 0 {
		return l.buf.Write(p)
	}
	remaining := l.limit - l.buf.Len()
	if remaining <= 0 {
		l.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated = true
		_, _ = l.buf.Write(p[:remaining])
		return len(p), nil
	}
	return l.buf.Write(p)
}

func (l *limitedBuffer) String() string {
	return l.buf.String()
}

var _ io.Writer = (*limitedBuffer)(nil)
