// Package transcribe turns speech into timed text segments with the whisper
// CLI, and exports subtitles.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/internal/logging"
	"github.com/kikiluvv/autocut/internal/toolrun"
	"github.com/kikiluvv/autocut/pkg/util"
)

// Segment is one stretch of speech, in seconds from the start of the file.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcriber produces the speech segments of a media file, in order.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) ([]Segment, error)
}

// Whisper drives the openai-whisper command line tool.
type Whisper struct {
	runner   *toolrun.Runner
	model    string
	language string
	logger   zerolog.Logger
}

// NewWhisper wraps the whisper binary at bin.
func NewWhisper(logger zerolog.Logger, bin, model, language string) (*Whisper, error) {
	runner, err := toolrun.New(logger, bin)
	if err != nil {
		return nil, err
	}
	return &Whisper{
		runner:   runner,
		model:    model,
		language: language,
		logger:   logging.WithComponent(logger, "whisper"),
	}, nil
}

func (w *Whisper) baseArgs(path, format, outDir string) []string {
	args := []string{path, "--model", w.model, "--output_format", format, "--output_dir", outDir}
	if w.language != "" {
		args = append(args, "--language", w.language)
	}
	return args
}

// Transcribe runs whisper on path and parses its JSON output.
func (w *Whisper) Transcribe(ctx context.Context, path string) ([]Segment, error) {
	tmp, err := os.MkdirTemp("", "autocut-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if _, err := w.runner.Run(ctx, path, w.baseArgs(path, "json", tmp)...); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(tmp, util.Stem(path)+".json"))
	if err != nil {
		return nil, &errs.ToolError{Tool: w.runner.Tool(), Path: path, Err: err}
	}

	segments, err := ParseJSON(data)
	if err != nil {
		return nil, &errs.ToolError{Tool: w.runner.Tool(), Path: path, Err: err}
	}

	w.logger.Info().
		Str("input", path).
		Int("segments", len(segments)).
		Msg("transcription complete")

	return segments, nil
}

// Subtitles writes an SRT for video to out. Word level output puts every
// word in its own cue.
func (w *Whisper) Subtitles(ctx context.Context, video, out string, wordLevel bool) error {
	tmp, err := os.MkdirTemp("", "autocut-subtitles-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	args := w.baseArgs(video, "srt", tmp)
	if wordLevel {
		args = append(args, "--word_timestamps", "True", "--max_words_per_line", "1")
	}
	if _, err := w.runner.Run(ctx, video, args...); err != nil {
		return err
	}

	if err := util.EnsureDir(filepath.Dir(out)); err != nil {
		return err
	}
	if err := copyFile(filepath.Join(tmp, util.Stem(video)+".srt"), out); err != nil {
		return &errs.ToolError{Tool: w.runner.Tool(), Path: video, Err: err}
	}

	w.logger.Info().Str("input", video).Str("output", out).Msg("subtitles generated")
	return nil
}

type whisperOutput struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// ParseJSON reads whisper's JSON output format.
func ParseJSON(data []byte) ([]Segment, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("malformed transcription: %w", err)
	}

	segments := make([]Segment, 0, len(out.Segments))
	for i, s := range out.Segments {
		if s.End < s.Start {
			return nil, fmt.Errorf("segment %d ends at %.3f before it starts at %.3f", i, s.End, s.Start)
		}
		s.Text = strings.TrimSpace(s.Text)
		segments = append(segments, s)
	}
	return segments, nil
}

// All transcribes every path with at most workers calls in flight. The
// result is indexed like paths.
func All(ctx context.Context, t Transcriber, paths []string, workers int) ([][]Segment, error) {
	results := make([][]Segment, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			segments, err := t.Transcribe(ctx, path)
			if err != nil {
				return fmt.Errorf("transcription of %s: %w", path, err)
			}
			results[i] = segments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
