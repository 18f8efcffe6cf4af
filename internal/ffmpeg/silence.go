package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// SilenceSegment is a silent stretch of the input in seconds. End is -1
// when the silence runs to the end of the stream.
type SilenceSegment struct {
	Start    float64
	End      float64
	Duration float64
}

// DetectSilence runs the silencedetect filter over the audio of input.
func (e *Executor) DetectSilence(ctx context.Context, input string, noiseDB, minDuration float64) ([]SilenceSegment, error) {
	e.logger.Info().
		Str("input", input).
		Float64("noise_db", noiseDB).
		Float64("min_duration", minDuration).
		Msg("detecting silence")

	var (
		mu    sync.Mutex
		lines []string
	)

	err := e.Run(ctx, RunOptions{
		Args: []string{
			"-i", input,
			"-vn",
			"-af", fmt.Sprintf("silencedetect=noise=%.2fdB:d=%.3f", noiseDB, minDuration),
			"-f", "null",
			"-",
		},
		Input: input,
		LogHandler: func(line string) {
			if !strings.Contains(line, "silence_") {
				return
			}
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("silence detection failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	segments := parseSilenceOutput(strings.Join(lines, "\n"))

	e.logger.Debug().Str("input", input).Int("segments", len(segments)).Msg("silence detected")
	return segments, nil
}

// parseSilenceOutput pairs silence_start and silence_end lines from the
// filter's stderr.
func parseSilenceOutput(output string) []SilenceSegment {
	var segments []SilenceSegment
	var start float64
	open := false

	for _, line := range strings.Split(output, "\n") {
		if v, ok := silenceField(line, "silence_start:"); ok {
			start, open = v, true
			continue
		}
		end, ok := silenceField(line, "silence_end:")
		if !ok {
			continue
		}
		dur, ok := silenceField(line, "silence_duration:")
		if !ok {
			dur = end - start
		}
		segments = append(segments, SilenceSegment{Start: start, End: end, Duration: dur})
		open = false
	}

	if open {
		segments = append(segments, SilenceSegment{Start: start, End: -1})
	}
	return segments
}

func silenceField(line, key string) (float64, bool) {
	_, rest, found := strings.Cut(line, key)
	if !found {
		return 0, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
