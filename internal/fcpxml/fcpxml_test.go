package fcpxml

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/timeline"
)

func sampleDocument(t *testing.T) *timeline.Document {
	t.Helper()
	doc := timeline.New()

	format, err := doc.AddFormat(30, 1920, 1080, "DefaultVideoFormat")
	require.NoError(t, err)
	a, err := doc.AddAsset(30, 90, 2, "a.mp4", "/videos/my clip/a.mp4", format)
	require.NoError(t, err)
	b, err := doc.AddAsset(30, 60, 0, "b.mp4", "/videos/b.mp4", format)
	require.NoError(t, err)

	clips := []timeline.ClipEntry{
		{Ref: a, Name: "a.mp4", FormatRef: format, FPS: 30, Start: 0, Offset: 0, Duration: 45, IncludeAudio: true},
		{Ref: a, Name: "a.mp4", FormatRef: format, FPS: 30, Start: 45, Offset: 45, Duration: 45, Lane: 1, IncludeAudio: true},
		{Ref: b, Name: "b.mp4", FormatRef: format, FPS: 30, Start: 7, Offset: 75, Duration: 53, IncludeAudio: true,
			Transform: timeline.Transform{Y: 20}},
		{Ref: b, Name: "b.mp4", FormatRef: format, FPS: 30, Start: 0, Offset: 0, Duration: 128, Lane: 2,
			Transform: timeline.Transform{Y: -37.5, Zoom: 0.5}},
	}
	for _, c := range clips {
		require.NoError(t, doc.AppendClip(c))
	}
	doc.RecomputeDuration()
	return doc
}

func TestEncodeLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleDocument(t), Options{}))
	out := buf.String()

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`, lines[0])
	assert.Equal(t, `<!DOCTYPE fcpxml>`, lines[1])
	assert.Equal(t, `<fcpxml version="1.11">`, lines[2])
	assert.Equal(t, "    <resources>", lines[3])

	for _, want := range []string{
		`<format id="r0" frameDuration="1/30s" width="1920" height="1080" name="DefaultVideoFormat">`,
		`<asset duration="90/30s" hasVideo="1" id="r1" audioSources="1" hasAudio="1" start="0/1s" name="a.mp4" audioChannels="2" format="r0">`,
		`hasAudio="0"`,
		`<media-rep src="file://localhost/videos/my%20clip/a.mp4" kind="original-media">`,
		`<event name="Timeline 1">`,
		`<project name="Timeline 1">`,
		`<sequence duration="128/30s" tcFormat="NDF" tcStart="0/1s" format="r0">`,
		`<asset-clip ref="r1" duration="45/30s" tcFormat="NDF" enabled="1" offset="0/30s" start="0/30s" name="a.mp4" format="r0">`,
		`offset="45/30s" start="45/30s" name="a.mp4" format="r0" lane="1">`,
		`lane="2" srcEnable="video">`,
		`<adjust-transform position="0 0" anchor="0 0" scale="1 1">`,
		`<adjust-transform position="0 20" anchor="0 0" scale="1 1">`,
		`<adjust-transform position="0 -37.5" anchor="0 0" scale="0.5 0.5">`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestRoundTrip(t *testing.T) {
	doc := sampleDocument(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, Options{ProjectName: "Cut", UID: "abc"}))

	parsed, err := Decode(&buf)
	require.NoError(t, err)

	seq, err := parsed.Sequence()
	require.NoError(t, err)
	require.Len(t, seq.Spine.AssetClips, 4)
	assert.Equal(t, rational.Time{Frames: 53, FPS: 30}, seq.Spine.AssetClips[2].Duration)
	assert.Equal(t, rational.Time{Frames: 7, FPS: 30}, seq.Spine.AssetClips[2].Start)
	assert.Equal(t, "Cut", parsed.Library.Events[0].Projects[0].Name)
	assert.Equal(t, "abc", parsed.Library.Events[0].UID)

	back, err := ToDocument(parsed)
	require.NoError(t, err)

	assert.Equal(t, doc.Formats(), back.Formats())
	assert.Equal(t, doc.Assets(), back.Assets())
	assert.Equal(t, doc.Clips(), back.Clips())
	assert.Equal(t, doc.Duration(), back.Duration())
	assert.Equal(t, doc.Refs(), back.Refs())
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "my_project.fcpxml")
	require.NoError(t, WriteFile(path, sampleDocument(t), Options{}))

	parsed, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Version, parsed.Version)
	assert.Len(t, parsed.Resources.Assets, 2)
}

func TestEncodeWithoutFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, timeline.New(), Options{}))
}

func TestDecodeRejectsMalformedTime(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE fcpxml>
<fcpxml version="1.11"><resources></resources><library><event name="e"><project name="p">
<sequence duration="10/0s" tcFormat="NDF" tcStart="0/1s" format="r0"><spine></spine></sequence>
</project></event></library></fcpxml>`

	_, err := Decode(strings.NewReader(src))
	assert.Error(t, err)
}
