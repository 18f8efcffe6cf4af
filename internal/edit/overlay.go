package edit

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/timeline"
)

// FillerFormatName names the format added for the filler video.
const FillerFormatName = "FillerVideoFormat"

type OverlayOptions struct {
	// ShiftRatio moves every existing clip up, in percent of frame height.
	ShiftRatio float64
}

func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{ShiftRatio: 20}
}

// AddFiller tiles a filler video from pool across the whole timeline on a
// new top lane, muted and scaled into the lower half of the frame. It
// returns the filler used, or "" when the pool is empty or the timeline
// has nothing to cover.
func AddFiller(ctx context.Context, doc *timeline.Document, pool FillerPool, prober Prober, opts OverlayOptions) (string, error) {
	total := doc.RecomputeDuration()
	if total.Frames == 0 {
		return "", nil
	}

	path, ok := pool.Pick()
	if !ok {
		return "", nil
	}

	info, err := prober.ProbeVideo(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to probe filler %s: %w", path, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return "", fmt.Errorf("%w: filler %s has no picture size", errs.ErrInvalidClip, path)
	}
	fillerFPS := info.WholeFPS()

	tile, err := rational.Time{Frames: info.FrameCount, FPS: fillerFPS}.RescaleFloor(doc.FPS())
	if err != nil {
		return "", fmt.Errorf("filler %s: %w", path, err)
	}
	if tile.Frames <= 0 {
		return "", fmt.Errorf("%w: filler %s is shorter than one project frame", errs.ErrInvalidClip, path)
	}

	if err := doc.RewriteClips(func(c timeline.ClipEntry) timeline.ClipEntry {
		c.Transform.Y += opts.ShiftRatio
		return c
	}); err != nil {
		return "", err
	}

	format, err := doc.AddFormat(fillerFPS, info.Width, info.Height, FillerFormatName)
	if err != nil {
		return "", err
	}
	name := filepath.Base(path)
	ref, err := doc.AddAsset(fillerFPS, info.FrameCount, info.AudioChannels, name, path, format)
	if err != nil {
		return "", err
	}

	projW, projH := doc.Canvas()
	clipProjH := float64(info.Height) * float64(projW) / float64(info.Width)
	placement := timeline.Transform{
		Y:    -(float64(projH) / 4) / clipProjH * 100,
		Zoom: float64(projH) / (clipProjH * 2),
	}

	lane := doc.MaxLane() + 1
	for covered := int64(0); covered < total.Frames; {
		n := min(tile.Frames, total.Frames-covered)
		err := doc.AppendClip(timeline.ClipEntry{
			Ref:       ref,
			Name:      name,
			FormatRef: format,
			FPS:       doc.FPS(),
			Start:     0,
			Offset:    covered,
			Duration:  n,
			Lane:      lane,
			Transform: placement,
		})
		if err != nil {
			return "", err
		}
		covered += n
	}

	doc.RecomputeDuration()
	return path, nil
}
