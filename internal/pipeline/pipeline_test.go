package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/autocut/internal/config"
	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/loudmap"
	"github.com/kikiluvv/autocut/internal/preprocess"
	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/transcribe"
)

type fakeProber map[string]int64

func (f fakeProber) ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error) {
	frames, ok := f[filepath.Base(path)]
	if !ok {
		return nil, errors.New("probe failed")
	}
	return &ffmpeg.VideoInfo{FilePath: path, Width: 1920, Height: 1080, FPS: 30, FrameCount: frames, AudioChannels: 2}, nil
}

type fakeLoudMaps map[string][]loudmap.Interval

func (f fakeLoudMaps) Generate(ctx context.Context, src loudmap.Source, out string) error {
	m := &loudmap.Map{FPS: src.FPS, Intervals: f[filepath.Base(src.Path)]}
	return m.Write(out)
}

type fakeTranscriber map[string][]transcribe.Segment

func (f fakeTranscriber) Transcribe(ctx context.Context, path string) ([]transcribe.Segment, error) {
	return f[filepath.Base(path)], nil
}

type fakePool []string

func (p fakePool) Pick() (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	return p[0], true
}

type recorder struct {
	mu        sync.Mutex
	previews  []string
	concat    ffmpeg.ConcatOptions
	subtitles string
}

func (r *recorder) Preview(ctx context.Context, src, out string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previews = append(r.previews, out)
	return nil
}

func (r *recorder) Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error {
	r.concat = opts
	return nil
}

func (r *recorder) Subtitles(ctx context.Context, video, out string, wordLevel bool) error {
	r.subtitles = out
	return os.WriteFile(out, []byte("1\n"), 0644)
}

type fakePreprocessor struct {
	files []string
}

func (f fakePreprocessor) Run(ctx context.Context, folder string) (preprocess.Result, error) {
	out := preprocess.Folder(folder, "")
	if err := os.MkdirAll(out, 0755); err != nil {
		return preprocess.Result{}, err
	}
	for _, n := range f.files {
		if err := os.WriteFile(filepath.Join(out, "preprocessed_"+n), nil, 0644); err != nil {
			return preprocess.Result{}, err
		}
	}
	return preprocess.Result{Folder: out, TargetFPS: 30}, nil
}

func videoFolder(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0644))
	}
	return dir
}

func testDeps() Deps {
	return Deps{
		Prober: fakeProber{
			"a.mp4": 90, "b.mp4": 60,
			"preprocessed_a.mp4": 90, "preprocessed_b.mp4": 60,
			"filler.mp4": 300,
		},
		LoudMaps: fakeLoudMaps{
			"a.mp4": {{Source: 0, Timeline: 0, Duration: 30}, {Source: 60, Timeline: 30, Duration: 30}},
			"b.mp4": {{Source: 0, Timeline: 0, Duration: 60}},
			"preprocessed_a.mp4": {{Source: 0, Timeline: 0, Duration: 90}},
			"preprocessed_b.mp4": {{Source: 0, Timeline: 0, Duration: 60}},
		},
		Transcriber: fakeTranscriber{
			"a.mp4": {{Start: 0, End: 1}},
			"b.mp4": {{Start: 0, End: 2}},
		},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Concurrency = 2
	cfg.Cache.Enabled = false
	return cfg
}

func TestBuildAllPasses(t *testing.T) {
	dir := videoFolder(t, "b.mp4", "a.mp4", "notes.txt")
	p := NewWithDeps(zerolog.Nop(), testConfig(), testDeps())

	project, err := p.Build(context.Background(), dir, BuildOptions{SkipPreprocess: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "my_project.fcpxml"), project.OutputPath)
	assert.FileExists(t, project.OutputPath)
	assert.FileExists(t, filepath.Join(dir, "remove_silence", "a_loud_map.json"))

	// a keeps its first second, b all of it; both split by the J-Cut
	assert.Equal(t, 4, project.Clips)
	assert.Equal(t, 2, project.Lanes)
	assert.Equal(t, rational.Time{Frames: 75, FPS: 30}, project.Duration)

	inspected, err := Inspect(project.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, project.Clips, inspected.Clips)
	assert.Equal(t, project.Duration, inspected.Duration)
	assert.Equal(t, 2, inspected.Assets)
	assert.Equal(t, "Timeline 1", inspected.Name)
}

func TestBuildJustRemoveSilence(t *testing.T) {
	dir := videoFolder(t, "a.mp4", "b.mp4")
	deps := testDeps()
	deps.Transcriber = nil
	p := NewWithDeps(zerolog.Nop(), testConfig(), deps)

	project, err := p.Build(context.Background(), dir, BuildOptions{
		SkipPreprocess:    true,
		JustRemoveSilence: true,
		SkipJCut:          true,
		Output:            "cut.fcpxml",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "cut.fcpxml"), project.OutputPath)
	assert.Equal(t, 3, project.Clips)
	assert.Equal(t, 1, project.Lanes)
	assert.Equal(t, rational.Time{Frames: 120, FPS: 30}, project.Duration)
}

func TestBuildWordlessNeedsTranscriber(t *testing.T) {
	dir := videoFolder(t, "a.mp4")
	deps := testDeps()
	deps.Transcriber = nil

	_, err := NewWithDeps(zerolog.Nop(), testConfig(), deps).Build(context.Background(), dir, BuildOptions{SkipPreprocess: true})
	assert.ErrorContains(t, err, "transcriber")
}

func TestBuildPreprocessed(t *testing.T) {
	dir := videoFolder(t, "a.mp4", "b.mp4")
	deps := testDeps()
	deps.Preprocessor = fakePreprocessor{files: []string{"a.mp4", "b.mp4"}}
	p := NewWithDeps(zerolog.Nop(), testConfig(), deps)

	project, err := p.Build(context.Background(), dir, BuildOptions{JustRemoveSilence: true, SkipJCut: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "preprocessed"), project.SourceFolder)
	assert.Equal(t, rational.Time{Frames: 150, FPS: 30}, project.Duration)

	again, err := p.Build(context.Background(), dir, BuildOptions{AlreadyPreprocessed: true, JustRemoveSilence: true, SkipJCut: true})
	require.NoError(t, err)
	assert.Equal(t, project.Duration, again.Duration)
}

func TestBuildAlreadyPreprocessedMissing(t *testing.T) {
	dir := videoFolder(t, "a.mp4")
	_, err := NewWithDeps(zerolog.Nop(), testConfig(), testDeps()).Build(context.Background(), dir, BuildOptions{AlreadyPreprocessed: true})
	assert.Error(t, err)
}

func TestBuildWithFiller(t *testing.T) {
	dir := videoFolder(t, "a.mp4", "b.mp4")
	deps := testDeps()
	deps.Fillers = fakePool{"/assets/filler.mp4"}
	p := NewWithDeps(zerolog.Nop(), testConfig(), deps)

	project, err := p.Build(context.Background(), dir, BuildOptions{SkipPreprocess: true, Filler: true, SkipJCut: true})
	require.NoError(t, err)
	assert.Equal(t, "/assets/filler.mp4", project.Filler)
	assert.Equal(t, 2, project.Lanes)
	assert.Equal(t, 3, project.Assets)
}

func TestBuildWithSubtitles(t *testing.T) {
	dir := videoFolder(t, "a.mp4", "b.mp4")
	rec := &recorder{}
	deps := testDeps()
	deps.Previewer, deps.Concat, deps.Subtitler = rec, rec, rec

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "timeline"), 0755))
	project, err := NewWithDeps(zerolog.Nop(), testConfig(), deps).Build(context.Background(), dir, BuildOptions{SkipPreprocess: true, Subtitles: true})
	require.NoError(t, err)

	assert.Len(t, rec.previews, 2)
	assert.Equal(t, filepath.Join(dir, "remove_silence", "final_preview.mp4"), rec.concat.Output)
	assert.Equal(t, []string{
		filepath.Join(dir, "remove_silence", "a_preview.mp4"),
		filepath.Join(dir, "remove_silence", "b_preview.mp4"),
	}, rec.concat.Inputs)
	assert.Equal(t, filepath.Join(dir, "timeline", "subtitles.srt"), project.Subtitles)
}

func TestSubtitlesCommand(t *testing.T) {
	dir := videoFolder(t, "final.mp4")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "timeline"), 0755))
	rec := &recorder{}
	p := NewWithDeps(zerolog.Nop(), testConfig(), Deps{Subtitler: rec})

	out, err := p.Subtitles(context.Background(), filepath.Join(dir, "final.mp4"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "timeline", "subtitles.srt"), out)

	_, err = p.Subtitles(context.Background(), filepath.Join(dir, "missing.mp4"))
	assert.Error(t, err)
}

func TestBuildRejectsMissingFolder(t *testing.T) {
	_, err := NewWithDeps(zerolog.Nop(), testConfig(), testDeps()).Build(context.Background(), filepath.Join(t.TempDir(), "nope"), BuildOptions{})
	assert.Error(t, err)
}

func TestLoadFillers(t *testing.T) {
	dir := videoFolder(t, "subway_surfers.mp4", "parkour.mov")

	reg, err := LoadFillers(zerolog.Nop(), config.OverlayConfig{
		Folder:  dir,
		Seed:    3,
		Presets: map[string]string{"custom": "/elsewhere/custom.mp4"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"custom", "parkour", "subway_surfers"}, reg.List())

	empty, err := LoadFillers(zerolog.Nop(), config.OverlayConfig{Folder: filepath.Join(dir, "missing")})
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}
