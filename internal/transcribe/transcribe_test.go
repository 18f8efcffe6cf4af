package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/autocut/internal/errs"
)

func TestParseJSON(t *testing.T) {
	data := []byte(`{"text":" hi there","segments":[{"id":0,"start":0.5,"end":1.25,"text":" hi"},{"id":1,"start":2,"end":3.5,"text":" there "}],"language":"en"}`)

	segments, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Start: 0.5, End: 1.25, Text: "hi"},
		{Start: 2, End: 3.5, Text: "there"},
	}, segments)
}

func TestParseJSONRejectsBackwardsSegment(t *testing.T) {
	_, err := ParseJSON([]byte(`{"segments":[{"start":3,"end":1,"text":"x"}]}`))
	assert.Error(t, err)
}

type fakeTranscriber map[string][]Segment

func (f fakeTranscriber) Transcribe(ctx context.Context, path string) ([]Segment, error) {
	s, ok := f[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return s, nil
}

func TestAllKeepsInputOrder(t *testing.T) {
	f := fakeTranscriber{
		"a": {{Start: 0, End: 1}},
		"b": {{Start: 2, End: 3}},
		"c": nil,
	}

	got, err := All(context.Background(), f, []string{"c", "a", "b"}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]Segment{nil, {{Start: 0, End: 1}}, {{Start: 2, End: 3}}}, got)
}

func TestAllFails(t *testing.T) {
	_, err := All(context.Background(), fakeTranscriber{}, []string{"missing"}, 1)
	assert.ErrorContains(t, err, "missing")
}

// writeFakeWhisper installs a shell script that writes a fixed JSON result
// where whisper would.
func writeFakeWhisper(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}

	script := `#!/bin/sh
in="$1"; shift
out=""
fmt=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output_dir) out="$2"; shift ;;
    --output_format) fmt="$2"; shift ;;
  esac
  shift
done
stem=$(basename "$in"); stem="${stem%.*}"
if [ "$fmt" = "srt" ]; then
  printf '1\n00:00:00,000 --> 00:00:01,000\nhi\n' > "$out/$stem.srt"
else
  printf '{"segments":[{"start":0,"end":1,"text":"hi"}]}' > "$out/$stem.json"
fi
`
	path := filepath.Join(t.TempDir(), "whisper")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestWhisperTranscribe(t *testing.T) {
	w, err := NewWhisper(zerolog.Nop(), writeFakeWhisper(t), "small", "en")
	require.NoError(t, err)

	segments, err := w.Transcribe(context.Background(), "/videos/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 0, End: 1, Text: "hi"}}, segments)
}

func TestWhisperSubtitles(t *testing.T) {
	w, err := NewWhisper(zerolog.Nop(), writeFakeWhisper(t), "small", "")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "timeline", "subtitles.srt")
	require.NoError(t, w.Subtitles(context.Background(), "/videos/final_preview.mp4", out, true))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hi")
}

func TestNewWhisperMissingBinary(t *testing.T) {
	_, err := NewWhisper(zerolog.Nop(), "definitely-not-a-whisper-binary", "small", "")
	assert.ErrorIs(t, err, errs.ErrExternalTool)
}
