// Package preprocess converts a folder of variable frame rate recordings to
// one shared constant frame rate before they are put on a timeline.
package preprocess

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/logging"
	"github.com/kikiluvv/autocut/pkg/util"
)

const (
	// Dir is the subfolder converted files are written to.
	Dir = "preprocessed"
	// Prefix is prepended to the name of every converted file.
	Prefix = "preprocessed_"
)

type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

type Converter interface {
	ConvertToCFR(ctx context.Context, input, output string, fps int, progressFunc ffmpeg.ProgressFunc) error
}

// Result describes a finished preprocessing run.
type Result struct {
	Folder    string
	TargetFPS int
	Files     []string
}

// Folder returns where the converted files of input end up. An empty dir
// means Dir.
func Folder(input, dir string) string {
	if dir == "" {
		dir = Dir
	}
	return filepath.Join(input, dir)
}

// TargetFPS rounds the lowest average frame rate to the nearest multiple
// of ten, never below ten.
func TargetFPS(lowest float64) int {
	fps := int(math.Round(lowest/10)) * 10
	if fps < 10 {
		return 10
	}
	return fps
}

// Preprocessor converts every video in a folder to the same frame rate.
type Preprocessor struct {
	prober    Prober
	converter Converter
	workers   int
	dir       string
	logger    zerolog.Logger
}

func New(logger zerolog.Logger, prober Prober, converter Converter, workers int, dir string) *Preprocessor {
	return &Preprocessor{
		prober:    prober,
		converter: converter,
		workers:   workers,
		dir:       dir,
		logger:    logging.WithComponent(logger, "preprocess"),
	}
}

// Run converts the videos in folder into its preprocessed subfolder.
func (p *Preprocessor) Run(ctx context.Context, folder string) (Result, error) {
	files, err := util.ListMediaFiles(folder)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list %s: %w", folder, err)
	}
	if len(files) == 0 {
		return Result{}, fmt.Errorf("no video files in %s", folder)
	}

	infos := make([]*ffmpeg.VideoInfo, len(files))
	g, gctx := errgroup.WithContext(ctx)
	p.limit(g)
	for i, f := range files {
		g.Go(func() error {
			info, err := p.prober.ProbeVideo(gctx, f)
			if err != nil {
				return fmt.Errorf("failed to probe %s: %w", f, err)
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	lowest := math.Inf(1)
	for _, info := range infos {
		if info.FPS > 0 {
			lowest = math.Min(lowest, info.FPS)
		}
	}
	if math.IsInf(lowest, 1) {
		return Result{}, fmt.Errorf("no frame rate found in %s", folder)
	}

	res := Result{
		Folder:    Folder(folder, p.dir),
		TargetFPS: TargetFPS(lowest),
		Files:     make([]string, len(files)),
	}
	if err := util.EnsureDir(res.Folder); err != nil {
		return Result{}, err
	}

	p.logger.Info().
		Float64("lowest_fps", lowest).
		Int("target_fps", res.TargetFPS).
		Int("files", len(files)).
		Msg("converting to constant frame rate")

	g, gctx = errgroup.WithContext(ctx)
	p.limit(g)
	for i, f := range files {
		out := filepath.Join(res.Folder, Prefix+filepath.Base(f))
		res.Files[i] = out
		g.Go(func() error {
			if err := p.converter.ConvertToCFR(gctx, f, out, res.TargetFPS, nil); err != nil {
				return fmt.Errorf("failed to convert %s: %w", f, err)
			}
			p.logger.Debug().Str("input", f).Str("output", out).Msg("converted")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return res, nil
}

func (p *Preprocessor) limit(g *errgroup.Group) {
	if p.workers > 0 {
		g.SetLimit(p.workers)
	}
}
