package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/autocut/internal/rational"
)

func TestJCut(t *testing.T) {
	doc, refs := wholeClips(t, 91, 20)
	require.NoError(t, JCut(doc, DefaultJCutOptions()))

	a := doc.Queue(refs[0])
	require.Len(t, a, 2)
	first, second := a[0], a[1]

	assert.EqualValues(t, 91, first.Duration+second.Duration)
	assert.EqualValues(t, 45, first.Duration)
	assert.Equal(t, 0, first.Lane)
	assert.EqualValues(t, 0, first.Offset)

	assert.Equal(t, 1, second.Lane)
	assert.EqualValues(t, 45, second.Start)
	assert.EqualValues(t, 45, second.Offset)

	// 91 - round(30*0.5) = 76
	b := doc.Queue(refs[1])
	require.Len(t, b, 1)
	assert.EqualValues(t, 76, b[0].Offset)
	assert.EqualValues(t, 20, b[0].Duration)
	assert.Equal(t, 0, b[0].Lane)

	assert.Equal(t, rational.Time{Frames: 96, FPS: 30}, doc.Duration())
}

func TestJCutShortClipsAreNeverSplit(t *testing.T) {
	doc, refs := wholeClips(t, 29, 10, 15)
	require.NoError(t, JCut(doc, DefaultJCutOptions()))

	var cursor int64
	for i, n := range []int64{29, 10, 15} {
		q := doc.Queue(refs[i])
		require.Len(t, q, 1)
		assert.Equal(t, n, q[0].Duration)
		assert.Equal(t, 0, q[0].Lane)
		assert.Equal(t, cursor, q[0].Offset)
		cursor += n
	}
	assert.Equal(t, 1, doc.MaxLane()+1)
}

func TestJCutOverlapNeverPassesSecondHalf(t *testing.T) {
	doc, refs := wholeClips(t, 30, 30)
	require.NoError(t, JCut(doc, JCutOptions{MinDuration: 1, Overlap: 5}))

	a := doc.Queue(refs[0])
	b := doc.Queue(refs[1])
	require.Len(t, b, 2)
	assert.Equal(t, a[1].Offset, b[0].Offset)
}
