package timeline

import "github.com/kikiluvv/autocut/internal/rational"

// FormatResource describes a frame rate and canvas shared by assets.
type FormatResource struct {
	ID     string
	FPS    int64
	Width  int
	Height int
	Name   string
}

// FrameDuration is the length of one frame, "1/{fps}s".
func (f FormatResource) FrameDuration() rational.Time {
	return rational.Time{Frames: 1, FPS: f.FPS}
}

// AssetResource is one source media file.
type AssetResource struct {
	ID            string
	Path          string
	Name          string
	Frames        int64
	FPS           int64
	AudioChannels int
	FormatRef     string
}

// Duration is the full asset length at its own frame rate.
func (a AssetResource) Duration() rational.Time {
	return rational.Time{Frames: a.Frames, FPS: a.FPS}
}

// HasAudio reports whether the asset carries any audio channel.
func (a AssetResource) HasAudio() bool {
	return a.AudioChannels > 0
}
