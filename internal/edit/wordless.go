package edit

import (
	"fmt"

	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/timeline"
	"github.com/kikiluvv/autocut/internal/transcribe"
)

// WordlessOptions widens every speech segment before clips are matched
// against it.
type WordlessOptions struct {
	LeftMargin  float64 // seconds
	RightMargin float64
}

func DefaultWordlessOptions() WordlessOptions {
	return WordlessOptions{LeftMargin: 0.3, RightMargin: 0.3}
}

type frameSpan struct{ start, end int64 }

// RemoveWordless drops every clip that no speech segment touches, and every
// clip flagged known silent. segments holds one list per reference in
// provenance order. Kept clips are packed from offset 0.
func RemoveWordless(doc *timeline.Document, segments [][]transcribe.Segment, opts WordlessOptions) error {
	refs := doc.Refs()
	if len(segments) != len(refs) {
		return fmt.Errorf("got transcriptions for %d files, timeline has %d", len(segments), len(refs))
	}

	var cumulative int64
	for i, ref := range refs {
		n := doc.QueueLen(ref)
		if n == 0 {
			continue
		}
		front, _ := doc.Front(ref)
		spans := speechSpans(segments[i], front.FPS, opts)

		cursor := 0
		for k := 0; k < n; k++ {
			c, _ := doc.Front(ref)

			for cursor < len(spans) && spans[cursor].end <= c.Start {
				cursor++
			}
			keep := cursor < len(spans) &&
				overlaps(spans[cursor], c) &&
				!c.Flags.Has(timeline.FlagKnownSilent)

			var err error
			if keep {
				c.Offset = cumulative
				cumulative += c.Duration
				_, err = doc.ReplaceClip(ref, c)
			} else {
				_, err = doc.ReplaceClip(ref)
			}
			if err != nil {
				return fmt.Errorf("wordless removal for %s: %w", ref, err)
			}
		}
	}

	doc.RecomputeDuration()
	return nil
}

func speechSpans(segments []transcribe.Segment, fps int64, opts WordlessOptions) []frameSpan {
	left := rational.FramesAt(opts.LeftMargin, fps)
	right := rational.FramesAt(opts.RightMargin, fps)

	spans := make([]frameSpan, 0, len(segments))
	for _, s := range segments {
		spans = append(spans, frameSpan{
			start: max(0, rational.FramesAt(s.Start, fps)-left),
			end:   rational.FramesAt(s.End, fps) + right,
		})
	}
	return spans
}

// overlaps reports a segment starting or ending inside the clip, or
// spanning all of it.
func overlaps(s frameSpan, c timeline.ClipEntry) bool {
	from, to := c.Start, c.SourceEnd()
	switch {
	case s.start >= from && s.start < to:
		return true
	case s.end > from && s.end <= to:
		return true
	default:
		return s.start <= from && s.end >= to
	}
}
