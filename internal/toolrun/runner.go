// Package toolrun executes external analysis programs (auto-editor,
// whisper) and reports failures as errs.ToolError.
package toolrun

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/internal/logging"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// Result describes one finished invocation.
type Result struct {
	ExitCode   int
	StderrTail string
	Duration   time.Duration
}

// IsSuccess reports a zero exit code.
func (r Result) IsSuccess() bool {
	return r.ExitCode == 0
}

// Runner runs one external program.
type Runner struct {
	logger zerolog.Logger
	tool   string
	path   string
}

// New resolves bin in PATH (or as a path) and returns a runner for it.
func New(logger zerolog.Logger, bin string) (*Runner, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, &errs.ToolError{Tool: bin, Err: err}
	}
	return &Runner{
		logger: logging.WithComponent(logger, "toolrun").With().Str("tool", bin).Logger(),
		tool:   bin,
		path:   path,
	}, nil
}

// Tool is the configured program name.
func (r *Runner) Tool() string { return r.tool }

// Run executes the program. input names the file being processed and is
// only used in logs and errors. A non-zero exit returns a *errs.ToolError.
func (r *Runner) Run(ctx context.Context, input string, args ...string) (Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.path, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	cmd.Stdout = io.Discard

	r.logger.Debug().
		Strs("args", args).
		Str("input", input).
		Msg("executing tool")

	err := cmd.Run()
	res := Result{
		StderrTail: stderrBuf.String(),
		Duration:   time.Since(start),
	}

	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}

		r.logger.Warn().
			Int("exit_code", res.ExitCode).
			Dur("duration", res.Duration).
			Str("input", input).
			Str("stderr_tail", truncate(res.StderrTail, 512)).
			Msg("tool failed")

		return res, &errs.ToolError{
			Tool:     r.tool,
			Path:     input,
			ExitCode: res.ExitCode,
			Stderr:   truncate(res.StderrTail, 2048),
			Err:      err,
		}
	}

	r.logger.Debug().
		Dur("duration", res.Duration).
		Str("input", input).
		Msg("tool finished")

	return res, nil
}

// limitedWriter keeps only the last limit bytes written to it.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= lw.limit {
		lw.w.Reset()
		lw.w.Write(p[len(p)-lw.limit:])
		return n, nil
	}
	if over := lw.w.Len() + len(p) - lw.limit; over > 0 {
		lw.w.Next(over)
	}
	lw.w.Write(p)
	return n, nil
}

// truncate keeps the last max bytes, where tools print the actual error.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
