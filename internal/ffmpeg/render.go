package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Render re-encodes a single input with the given filters and rate
func (e *Executor) Render(ctx context.Context, opts RenderOptions) error {
	if err := validateRenderOptions(opts); err != nil {
		return fmt.Errorf("invalid render options: %w", err)
	}

	e.logger.Info().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Int("fps", opts.FPS).
		Msg("starting render")

	args := []string{"-i", opts.Input}

	if len(opts.Filters) > 0 {
		args = append(args, "-vf", strings.Join(opts.Filters, ","))
	}

	// Video codec settings
	videoCodec := opts.VideoCodec
	if videoCodec == "" {
		videoCodec = DefaultVideoCodec
	}
	args = append(args, "-c:v", videoCodec)

	// Quality settings
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	args = append(args, "-crf", strconv.Itoa(crf))

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	args = append(args, "-preset", preset)

	audioCodec := opts.AudioCodec
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}
	args = append(args, "-c:a", audioCodec)

	// Constant frame rate output
	if opts.FPS > 0 {
		args = append(args, "-fps_mode", "cfr", "-r", strconv.Itoa(opts.FPS))
	}

	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		Input:           opts.Input,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("render output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("render completed")
	return nil
}

// ConvertToCFR re-encodes input at a constant fps
func (e *Executor) ConvertToCFR(ctx context.Context, input, output string, fps int, progressFunc ProgressFunc) error {
	return e.Render(ctx, RenderOptions{
		Input:        input,
		Output:       output,
		Filters:      []string{cfrFilter(fps)},
		FPS:          fps,
		ProgressFunc: progressFunc,
	})
}

func cfrFilter(fps int) string {
	return "fps=" + strconv.Itoa(fps)
}

// validateRenderOptions validates the render options
func validateRenderOptions(opts RenderOptions) error {
	if opts.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.CRF < 0 || opts.CRF > 51 {
		return fmt.Errorf("CRF must be between 0 and 51")
	}
	if opts.FPS < 0 {
		return fmt.Errorf("FPS cannot be negative")
	}
	return nil
}
