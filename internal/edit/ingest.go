package edit

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/timeline"
	"github.com/kikiluvv/autocut/pkg/util"
)

// DefaultFormatName names the project format created by Ingest.
const DefaultFormatName = "DefaultVideoFormat"

// Ingest puts every video in paths on lane 0, back to back in name order.
// Probes run with at most workers in flight; the document is only touched
// once they have all returned. Files the prober reports without any frames
// are skipped with a warning on the context logger.
func Ingest(ctx context.Context, doc *timeline.Document, prober Prober, paths []string, workers int) error {
	var files []string
	for _, p := range paths {
		if util.IsVideoFile(p) {
			files = append(files, p)
		}
	}
	slices.Sort(files)
	if len(files) == 0 {
		return fmt.Errorf("no video files to ingest")
	}

	infos := make([]*ffmpeg.VideoInfo, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, f := range files {
		g.Go(func() error {
			info, err := prober.ProbeVideo(gctx, f)
			if err != nil {
				return fmt.Errorf("failed to probe %s: %w", f, err)
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	format, ok := doc.CanonicalFormat()
	var cumulative int64
	ingested := 0
	for i, f := range files {
		info := infos[i]
		if info.FrameCount <= 0 {
			zerolog.Ctx(ctx).Warn().Str("file", f).Msg("no video frames, skipping")
			continue
		}
		if !ok {
			id, err := doc.AddFormat(info.WholeFPS(), info.Width, info.Height, DefaultFormatName)
			if err != nil {
				return fmt.Errorf("format from %s: %w", f, err)
			}
			format, _ = doc.Format(id)
			ok = true
		}

		ref, err := doc.AddAsset(info.WholeFPS(), info.FrameCount, info.AudioChannels, filepath.Base(f), f, format.ID)
		if err != nil {
			return fmt.Errorf("asset from %s: %w", f, err)
		}
		clip, err := doc.WholeAssetClip(ref, cumulative)
		if err != nil {
			return err
		}
		if err := doc.AppendClip(clip); err != nil {
			return fmt.Errorf("ingest %s: %w", f, err)
		}
		cumulative += clip.Duration
		ingested++
	}
	if ingested == 0 {
		return fmt.Errorf("none of %d files has video frames", len(files))
	}

	doc.RecomputeDuration()
	return nil
}
