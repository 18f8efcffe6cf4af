package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/pkg/util"
)

// ConcatOptions joins Inputs, in order, into Output with the concat demuxer.
// Streams are copied unless ReEncode is set.
type ConcatOptions struct {
	Inputs       []string
	Output       string
	ReEncode     bool
	ProgressFunc ProgressFunc
}

// Concat merges the inputs into one file
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	for _, in := range opts.Inputs {
		if !util.FileExists(in) {
			return fmt.Errorf("%w: concat input %s", errs.ErrMissingResource, in)
		}
	}

	if err := util.EnsureDir(filepath.Dir(opts.Output)); err != nil {
		return err
	}

	list, err := concatList(opts.Inputs)
	if err != nil {
		return err
	}

	listFile, err := os.CreateTemp(filepath.Dir(opts.Output), ".concat-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listFile.Name())

	if _, err := listFile.WriteString(list); err != nil {
		listFile.Close()
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	if err := listFile.Close(); err != nil {
		return err
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Bool("reencode", opts.ReEncode).
		Msg("joining videos")

	args := []string{"-f", "concat", "-safe", "0", "-i", listFile.Name()}
	if opts.ReEncode {
		args = append(args,
			"-c:v", DefaultVideoCodec,
			"-crf", strconv.Itoa(DefaultCRF),
			"-preset", DefaultPreset,
			"-c:a", DefaultAudioCodec,
		)
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, opts.Output)

	return e.Run(ctx, RunOptions{
		Args:            args,
		Input:           opts.Output,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("concat output")
		},
	})
}

// concatList renders the concat demuxer file list with absolute paths.
// A quote inside a path closes the quoted string, is escaped and reopens it.
func concatList(inputs []string) (string, error) {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return "", err
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String(), nil
}
