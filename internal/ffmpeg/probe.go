package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/pkg/util"
)

// ProbeVideo extracts metadata from a video file
func (e *Executor) ProbeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		toolErr := &errs.ToolError{Tool: "ffprobe", Path: filePath, Err: err}
		if exitErr, ok := err.(*exec.ExitError); ok {
			toolErr.ExitCode = exitErr.ExitCode()
			toolErr.Stderr = string(exitErr.Stderr)
		}
		return nil, toolErr
	}

	info, err := parseProbeOutput(output, filePath)
	if err != nil {
		return nil, &errs.ToolError{Tool: "ffprobe", Path: filePath, Err: err}
	}

	e.logger.Debug().
		Str("file", filePath).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Int64("frames", info.FrameCount).
		Int("audio_channels", info.AudioChannels).
		Msg("probed video")

	return info, nil
}

// parseProbeOutput maps ffprobe JSON onto VideoInfo
func parseProbeOutput(output []byte, filePath string) (*VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{
		FilePath: filePath,
	}

	// Parse duration
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	// Parse bitrate
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}

	// Extract first video stream and first audio stream
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName

			// avg_frame_rate is what the encoder delivered; r_frame_rate is the container's guess
			info.FrameRate = stream.AvgFrameRate
			info.FPS = util.ParseFrameRate(stream.AvgFrameRate)
			if info.FPS == 0 {
				info.FrameRate = stream.RFrameRate
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}

			if n, err := strconv.ParseInt(stream.NbFrames, 10, 64); err == nil {
				info.FrameCount = n
			} else {
				dur := info.Duration.Seconds()
				if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					dur = d
				}
				info.FrameCount = int64(math.Round(dur * info.FPS))
			}
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			info.AudioChannels = stream.Channels
			if br, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
				info.AudioBitrate = br
			}
		}
	}

	if !info.HasVideo {
		return nil, fmt.Errorf("no video stream in %s", filePath)
	}

	return info, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
		Channels     int    `json:"channels"`
		BitRate      string `json:"bit_rate"`
	} `json:"streams"`
}
