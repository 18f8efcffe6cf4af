package errs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestToolErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("loud map: %w", &ToolError{
		Tool:     "auto-editor",
		Path:     "/videos/a.mp4",
		ExitCode: 2,
		Stderr:   "no audio stream\n",
	})

	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected errors.Is to match ErrExternalTool, got %v", err)
	}

	msg := err.Error()
	for _, want := range []string{"auto-editor", "/videos/a.mp4", "exit 2", "no audio stream"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestToolErrorUnwrap(t *testing.T) {
	err := &ToolError{Tool: "ffprobe", Path: "x.mov", Err: os.ErrNotExist}

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected underlying error to be reachable, got %v", err)
	}
	if errors.Is(err, ErrMissingResource) {
		t.Error("tool error should not match ErrMissingResource")
	}
}
