package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/timeline"
	"github.com/kikiluvv/autocut/internal/transcribe"
)

// splitDoc builds one asset per entry of clips, each represented by the given
// sub-clips (start, duration, flags), as silence removal would leave them.
func splitDoc(t *testing.T, frames []int64, clips [][]timeline.ClipEntry) (*timeline.Document, []string) {
	t.Helper()
	doc := timeline.New()
	format, err := doc.AddFormat(30, 1920, 1080, DefaultFormatName)
	require.NoError(t, err)

	var refs []string
	var offset int64
	for i, n := range frames {
		name := string(rune('a'+i)) + ".mp4"
		ref, err := doc.AddAsset(30, n, 2, name, "/src/"+name, format)
		require.NoError(t, err)
		for _, c := range clips[i] {
			c.Ref, c.Name, c.FormatRef, c.FPS, c.IncludeAudio = ref, name, format, 30, true
			c.Offset = offset
			offset += c.Duration
			require.NoError(t, doc.AppendClip(c))
		}
		refs = append(refs, ref)
	}
	doc.RecomputeDuration()
	return doc, refs
}

func TestRemoveWordless(t *testing.T) {
	doc, refs := splitDoc(t, []int64{300, 60}, [][]timeline.ClipEntry{
		{
			{Start: 0, Duration: 30},
			{Start: 60, Duration: 30},
			{Start: 150, Duration: 30, Flags: timeline.FlagKnownSilent},
			{Start: 240, Duration: 30},
		},
		{
			{Start: 0, Duration: 60},
		},
	})

	segments := [][]transcribe.Segment{
		{{Start: 2.1, End: 2.5, Text: "hello"}, {Start: 5, End: 6, Text: "there"}},
		{{Start: 0.5, End: 1, Text: "bye"}},
	}
	require.NoError(t, RemoveWordless(doc, segments, WordlessOptions{}))

	a := doc.Queue(refs[0])
	require.Len(t, a, 1)
	assert.EqualValues(t, 60, a[0].Start)
	assert.EqualValues(t, 0, a[0].Offset)

	b := doc.Queue(refs[1])
	require.Len(t, b, 1)
	assert.EqualValues(t, 30, b[0].Offset)

	assert.Equal(t, rational.Time{Frames: 90, FPS: 30}, doc.Duration())
}

func TestRemoveWordlessKeepsOrder(t *testing.T) {
	doc, refs := splitDoc(t, []int64{300}, [][]timeline.ClipEntry{{
		{Start: 0, Duration: 30},
		{Start: 30, Duration: 30},
		{Start: 90, Duration: 30},
		{Start: 200, Duration: 30},
	}})

	// one long segment spanning the first three clips
	segments := [][]transcribe.Segment{{{Start: 0, End: 4}}}
	require.NoError(t, RemoveWordless(doc, segments, WordlessOptions{}))

	q := doc.Queue(refs[0])
	require.Len(t, q, 3)
	var want int64
	for i, start := range []int64{0, 30, 90} {
		assert.Equal(t, start, q[i].Start)
		assert.Equal(t, want, q[i].Offset)
		want += q[i].Duration
	}
	assert.LessOrEqual(t, doc.Len(), 4)
}

func TestRemoveWordlessMargins(t *testing.T) {
	build := func() (*timeline.Document, []string) {
		return splitDoc(t, []int64{90}, [][]timeline.ClipEntry{{{Start: 0, Duration: 30}}})
	}
	segments := [][]transcribe.Segment{{{Start: 1.1, End: 1.5}}}

	doc, refs := build()
	require.NoError(t, RemoveWordless(doc, segments, WordlessOptions{}))
	assert.Equal(t, 0, doc.QueueLen(refs[0]))

	doc, refs = build()
	require.NoError(t, RemoveWordless(doc, segments, DefaultWordlessOptions()))
	assert.Equal(t, 1, doc.QueueLen(refs[0]))
}

func TestRemoveWordlessNeedsOneListPerReference(t *testing.T) {
	doc, _ := wholeClips(t, 90, 60)
	assert.Error(t, RemoveWordless(doc, [][]transcribe.Segment{nil}, WordlessOptions{}))
}

func TestOverlaps(t *testing.T) {
	c := timeline.ClipEntry{Start: 10, Duration: 10}
	tests := []struct {
		span frameSpan
		want bool
	}{
		{frameSpan{12, 14}, true},
		{frameSpan{0, 12}, true},
		{frameSpan{15, 40}, true},
		{frameSpan{0, 40}, true},
		{frameSpan{0, 10}, false},
		{frameSpan{20, 30}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, overlaps(tt.span, c), "%+v", tt.span)
	}
}
