// Package edit holds the passes that rewrite a timeline.Document: ingest,
// silence removal, wordless removal, J-Cut and the filler overlay.
//
// Passes run one after another on the same document. None keeps state
// between calls; running totals are parameters or locals.
package edit

import (
	"context"

	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/loudmap"
	"github.com/kikiluvv/autocut/internal/timeline"
)

// Prober reports the stream layout of a media file.
type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// LoudMapSource returns the loud intervals of an asset.
type LoudMapSource interface {
	LoudMap(asset timeline.AssetResource) (*loudmap.Map, error)
}

// FillerPool hands out a filler video path, or false when it has none.
type FillerPool interface {
	Pick() (string, bool)
}
