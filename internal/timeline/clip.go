package timeline

import "github.com/kikiluvv/autocut/internal/rational"

// Flags carries pass-specific markers on a clip.
type Flags uint32

const (
	// FlagKnownSilent marks an interval the analysis already found silent.
	FlagKnownSilent Flags = 1 << iota
)

// Has reports whether every bit of f2 is set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Transform is the visual placement of a clip. Position is in percent of
// the frame height, as the adjust-transform element expects. A zero Zoom
// renders unscaled.
type Transform struct {
	X    float64
	Y    float64
	Zoom float64
}

// Scale returns the effective zoom factor.
func (t Transform) Scale() float64 {
	if t.Zoom == 0 {
		return 1
	}
	return t.Zoom
}

// ClipEntry is one clip on the track. It is a plain value: rewriting a clip
// means building a new entry and replacing the old one.
type ClipEntry struct {
	Ref          string
	Name         string
	FormatRef    string
	FPS          int64
	Start        int64 // frames into the source asset
	Offset       int64 // frames from the start of the timeline
	Duration     int64
	Lane         int
	IncludeAudio bool
	Flags        Flags
	Transform    Transform
}

// End is the first timeline frame after the clip.
func (c ClipEntry) End() int64 {
	return c.Offset + c.Duration
}

// SourceEnd is the first source frame after the clip.
func (c ClipEntry) SourceEnd() int64 {
	return c.Start + c.Duration
}

func (c ClipEntry) StartTime() rational.Time    { return rational.Time{Frames: c.Start, FPS: c.FPS} }
func (c ClipEntry) OffsetTime() rational.Time   { return rational.Time{Frames: c.Offset, FPS: c.FPS} }
func (c ClipEntry) DurationTime() rational.Time { return rational.Time{Frames: c.Duration, FPS: c.FPS} }
