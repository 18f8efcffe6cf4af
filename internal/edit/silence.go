package edit

import (
	"fmt"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/internal/loudmap"
	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/timeline"
)

// RemoveSilence replaces the whole-asset clip of every reference with one
// clip per loud interval. Clips are laid out contiguously from cumulative
// across all references in provenance order; the returned value is where
// the next clip would go.
func RemoveSilence(doc *timeline.Document, maps LoudMapSource, cumulative int64) (int64, error) {
	for _, ref := range doc.Refs() {
		switch n := doc.QueueLen(ref); {
		case n == 0:
			continue
		case n > 1:
			return cumulative, fmt.Errorf("%w: %s has %d clips, silence removal needs one", errs.ErrInvalidClip, ref, n)
		}

		base, _ := doc.Front(ref)
		asset, _ := doc.Asset(ref)

		m, err := maps.LoudMap(asset)
		if err != nil {
			return cumulative, fmt.Errorf("silence removal for %s: %w", asset.Path, err)
		}

		clips, next, err := splitByLoudMap(base, m, cumulative)
		if err != nil {
			return cumulative, fmt.Errorf("silence removal for %s: %w", asset.Path, err)
		}
		if _, err := doc.ReplaceClip(ref, clips...); err != nil {
			return cumulative, err
		}
		cumulative = next
	}

	doc.RecomputeDuration()
	return cumulative, nil
}

// splitByLoudMap copies base once per interval of m. Interval positions
// are converted to the clip frame rate first and must convert exactly.
func splitByLoudMap(base timeline.ClipEntry, m *loudmap.Map, cumulative int64) ([]timeline.ClipEntry, int64, error) {
	convert := func(frames int64) (int64, error) {
		t, err := rational.Time{Frames: frames, FPS: m.FPS}.ConvertTo(base.FPS)
		return t.Frames, err
	}

	clips := make([]timeline.ClipEntry, 0, len(m.Intervals))
	lastTimeline := int64(-1)
	for i, iv := range m.Intervals {
		if iv.Duration <= 0 {
			return nil, 0, fmt.Errorf("%w: interval %d has duration %d", errs.ErrInvalidClip, i, iv.Duration)
		}
		if iv.Timeline < lastTimeline {
			return nil, 0, fmt.Errorf("%w: interval %d starts at %d, before the previous one at %d",
				errs.ErrInvalidClip, i, iv.Timeline, lastTimeline)
		}
		lastTimeline = iv.Timeline

		start, err := convert(iv.Source)
		if err != nil {
			return nil, 0, err
		}
		dur, err := convert(iv.Duration)
		if err != nil {
			return nil, 0, err
		}
		if start < base.Start || start+dur > base.SourceEnd() {
			return nil, 0, fmt.Errorf("%w: interval %d [%d,%d) outside source [%d,%d)",
				errs.ErrInvalidClip, i, start, start+dur, base.Start, base.SourceEnd())
		}

		c := base
		c.Start = start
		c.Offset = cumulative
		c.Duration = dur
		if iv.KnownSilent() {
			c.Flags |= timeline.FlagKnownSilent
		}
		clips = append(clips, c)
		cumulative += dur
	}
	return clips, cumulative, nil
}
