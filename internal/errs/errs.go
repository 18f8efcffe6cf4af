// Package errs holds the error taxonomy shared by the timeline engine and
// its external collaborators.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTimebase reports a non-positive fps, malformed rational text,
	// or arithmetic across mismatched frame rates.
	ErrInvalidTimebase = errors.New("invalid timebase")

	// ErrEmptyQueue reports a pop on a reference with no clips left. It means
	// a pass and the document went out of sync.
	ErrEmptyQueue = errors.New("empty clip queue")

	// ErrMissingResource reports an absent resource, reference, or analysis file.
	ErrMissingResource = errors.New("missing resource")

	// ErrExternalTool reports a failed or misbehaving external program.
	ErrExternalTool = errors.New("external tool failure")

	// ErrInvalidClip reports a clip or interval that cannot be placed.
	ErrInvalidClip = errors.New("invalid clip")
)

// ToolError describes a failed invocation of an external program on one file.
type ToolError struct {
	Tool     string
	Path     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Tool)
	if e.Path != "" {
		fmt.Fprintf(&b, " for %s", e.Path)
	}
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		fmt.Fprintf(&b, ": %s", tail)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is lets errors.Is match any ToolError against ErrExternalTool.
func (e *ToolError) Is(target error) bool {
	return target == ErrExternalTool
}
