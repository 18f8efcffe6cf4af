package edit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/autocut/internal/errs"
	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/loudmap"
	"github.com/kikiluvv/autocut/internal/timeline"
)

type fakeProber map[string]*ffmpeg.VideoInfo

func (f fakeProber) ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error) {
	info, ok := f[path]
	if !ok {
		return nil, errors.New("probe failed")
	}
	return info, nil
}

func video(frames int64) *ffmpeg.VideoInfo {
	return &ffmpeg.VideoInfo{Width: 1920, Height: 1080, FPS: 30, FrameCount: frames, AudioChannels: 2}
}

type fakeMaps map[string]*loudmap.Map

func (f fakeMaps) LoudMap(asset timeline.AssetResource) (*loudmap.Map, error) {
	m, ok := f[asset.Path]
	if !ok {
		return nil, fmt.Errorf("%w: loud map for %s", errs.ErrMissingResource, asset.Path)
	}
	return m, nil
}

type fakePool []string

func (p fakePool) Pick() (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	return p[0], true
}

// wholeClips builds a 30fps 1920x1080 document with one whole-asset clip per
// frame count, laid out back to back. Assets are /src/a.mp4, /src/b.mp4...
func wholeClips(t *testing.T, frames ...int64) (*timeline.Document, []string) {
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
		c, err := doc.WholeAssetClip(ref, offset)
		require.NoError(t, err)
		require.NoError(t, doc.AppendClip(c))
		refs = append(refs, ref)
		offset += n
	}
	doc.RecomputeDuration()
	return doc, refs
}
