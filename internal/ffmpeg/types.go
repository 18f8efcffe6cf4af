package ffmpeg

import (
	"math"
	"time"
)

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath      string        `json:"file_path"`
	Duration      time.Duration `json:"duration"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	FPS           float64       `json:"fps"`
	FrameRate     string        `json:"frame_rate"`
	FrameCount    int64         `json:"frame_count"`
	Bitrate       int64         `json:"bitrate"`
	VideoCodec    string        `json:"video_codec"`
	HasVideo      bool          `json:"has_video"`
	HasAudio      bool          `json:"has_audio"`
	AudioCodec    string        `json:"audio_codec"`
	AudioChannels int           `json:"audio_channels"`
	AudioBitrate  int64         `json:"audio_bitrate"`
}

// WholeFPS is the frame rate rounded to the integer timebase used on the timeline.
func (v *VideoInfo) WholeFPS() int64 {
	return int64(math.Round(v.FPS))
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame      int
	FPS        float64
	Bitrate    string
	Time       string
	Speed      string
	Percentage float64
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	Input           string // reported in errors
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// Default encoding settings
const (
	DefaultCRF        = 18
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

// RenderOptions configures a single-input re-encode
type RenderOptions struct {
	Input        string
	Output       string
	Filters      []string
	VideoCodec   string
	AudioCodec   string
	CRF          int
	Preset       string
	FPS          int
	ProgressFunc ProgressFunc
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)
