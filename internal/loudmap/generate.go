package loudmap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/logging"
	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/toolrun"
	"github.com/kikiluvv/autocut/pkg/util"
)

// Source is a media file to analyse.
type Source struct {
	Path   string
	FPS    int64
	Frames int64
}

// Generator writes the loud map for src to out.
type Generator interface {
	Generate(ctx context.Context, src Source, out string) error
}

// AutoEditor generates loud maps and previews with the auto-editor CLI.
type AutoEditor struct {
	runner *toolrun.Runner
	margin float64
	logger zerolog.Logger
}

// NewAutoEditor wraps the auto-editor binary at bin.
func NewAutoEditor(logger zerolog.Logger, bin string, margin float64) (*AutoEditor, error) {
	runner, err := toolrun.New(logger, bin)
	if err != nil {
		return nil, err
	}
	return &AutoEditor{
		runner: runner,
		margin: margin,
		logger: logging.WithComponent(logger, "auto-editor"),
	}, nil
}

func (a *AutoEditor) marginArg() string {
	return util.FormatSeconds(a.margin)
}

// Generate exports the loud intervals of src as JSON.
func (a *AutoEditor) Generate(ctx context.Context, src Source, out string) error {
	_, err := a.runner.Run(ctx, src.Path,
		src.Path,
		"--export-as-json",
		"--margin", a.marginArg(),
		"--output-file", out,
	)
	if err != nil {
		return err
	}

	a.logger.Info().Str("input", src.Path).Str("loud_map", out).Msg("loud map generated")
	return nil
}

// Preview renders src with its silences cut.
func (a *AutoEditor) Preview(ctx context.Context, src, out string) error {
	_, err := a.runner.Run(ctx, src,
		src,
		"--margin", a.marginArg(),
		"--output-file", out,
		"--no-open",
	)
	if err != nil {
		return err
	}

	a.logger.Info().Str("input", src).Str("preview", out).Msg("loud preview generated")
	return nil
}

// SilenceDetector is the part of the ffmpeg executor the fallback needs.
type SilenceDetector interface {
	DetectSilence(ctx context.Context, input string, noiseThreshold float64, minDuration float64) ([]ffmpeg.SilenceSegment, error)
}

// FFmpegGenerator builds loud maps from ffmpeg silencedetect output, for
// machines without auto-editor.
type FFmpegGenerator struct {
	detector   SilenceDetector
	noiseDB    float64
	minSilence float64
	margin     float64
}

func NewFFmpegGenerator(detector SilenceDetector, noiseDB, minSilence, margin float64) *FFmpegGenerator {
	return &FFmpegGenerator{
		detector:   detector,
		noiseDB:    noiseDB,
		minSilence: minSilence,
		margin:     margin,
	}
}

func (g *FFmpegGenerator) Generate(ctx context.Context, src Source, out string) error {
	silences, err := g.detector.DetectSilence(ctx, src.Path, g.noiseDB, g.minSilence)
	if err != nil {
		return fmt.Errorf("silence detection for %s: %w", src.Path, err)
	}

	m := FromSilence(silences, src.FPS, src.Frames, rational.RoundFrames(g.margin, src.FPS))
	return m.Write(out)
}

// FromSilence returns the complement of silences over [0, frames), with
// each loud span widened by margin frames and overlaps merged. Timeline
// positions are laid out back to back.
func FromSilence(silences []ffmpeg.SilenceSegment, fps, frames, margin int64) *Map {
	type span struct{ from, to int64 }

	var loud []span
	cursor := int64(0)
	for _, s := range silences {
		from := rational.FramesAt(s.Start, fps)
		to := frames
		if s.End >= 0 {
			to = rational.FramesAt(s.End, fps)
		}
		if from > cursor {
			loud = append(loud, span{cursor, from})
		}
		if to > cursor {
			cursor = to
		}
	}
	if cursor < frames {
		loud = append(loud, span{cursor, frames})
	}

	var merged []span
	for _, sp := range loud {
		sp.from = max(0, sp.from-margin)
		sp.to = min(frames, sp.to+margin)
		if n := len(merged); n > 0 && sp.from <= merged[n-1].to {
			merged[n-1].to = max(merged[n-1].to, sp.to)
			continue
		}
		merged = append(merged, sp)
	}

	m := &Map{FPS: fps}
	var pos int64
	for _, sp := range merged {
		if sp.to <= sp.from {
			continue
		}
		m.Intervals = append(m.Intervals, Interval{Source: sp.from, Timeline: pos, Duration: sp.to - sp.from})
		pos += sp.to - sp.from
	}
	return m
}
