package edit

import (
	"math"

	"github.com/kikiluvv/autocut/internal/timeline"
)

type JCutOptions struct {
	MinDuration float64 // seconds; shorter clips are not split
	Overlap     float64 // seconds the next clip starts under the previous one
}

func DefaultJCutOptions() JCutOptions {
	return JCutOptions{MinDuration: 1.0, Overlap: 0.5}
}

// JCut splits every long clip in two: the first half stays on lane 0, the
// second moves to lane 1 and the next clip on lane 0 starts Overlap seconds
// before it ends, so its audio comes in under the current picture.
func JCut(doc *timeline.Document, opts JCutOptions) error {
	fps := doc.FPS()
	overlap := int64(math.Round(float64(fps) * opts.Overlap))

	var cursor int64
	for _, ref := range doc.Refs() {
		n := doc.QueueLen(ref)
		for k := 0; k < n; k++ {
			c, _ := doc.Front(ref)

			if float64(c.Duration)/float64(c.FPS) < opts.MinDuration || c.Duration < 2 {
				c.Offset = cursor
				c.Lane = 0
				if _, err := doc.ReplaceClip(ref, c); err != nil {
					return err
				}
				cursor += c.Duration
				continue
			}

			first, second := c, c
			first.Duration = c.Duration / 2
			first.Offset = cursor
			first.Lane = 0

			second.Duration = c.Duration - first.Duration
			second.Start = c.Start + first.Duration
			second.Offset = cursor + first.Duration
			second.Lane = 1

			if _, err := doc.ReplaceClip(ref, first, second); err != nil {
				return err
			}
			cursor = max(second.End()-overlap, second.Offset)
		}
	}

	doc.RecomputeDuration()
	return nil
}
