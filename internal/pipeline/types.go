package pipeline

import (
	"context"
	"time"

	"github.com/kikiluvv/autocut/internal/edit"
	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/loudmap"
	"github.com/kikiluvv/autocut/internal/preprocess"
	"github.com/kikiluvv/autocut/internal/rational"
	"github.com/kikiluvv/autocut/internal/transcribe"
)

// Project summarizes a built or inspected project file
type Project struct {
	Name         string
	InputFolder  string
	SourceFolder string // where the clips on the timeline live
	OutputPath   string
	Duration     rational.Time
	Assets       int
	Clips        int
	Lanes        int
	Filler       string
	Subtitles    string
	CreatedAt    time.Time
}

// BuildOptions selects which stages a build runs
type BuildOptions struct {
	SkipPreprocess      bool
	AlreadyPreprocessed bool
	SkipJCut            bool
	JustRemoveSilence   bool
	Subtitles           bool
	Filler              bool
	Output              string
	NoCache             bool
}

type Preprocessor interface {
	Run(ctx context.Context, folder string) (preprocess.Result, error)
}

type Previewer interface {
	Preview(ctx context.Context, src, out string) error
}

type Concatenator interface {
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
}

type Subtitler interface {
	Subtitles(ctx context.Context, video, out string, wordLevel bool) error
}

// Deps are the collaborators a Pipeline drives. New fills them from config;
// tests pass fakes to NewWithDeps. A nil member disables the stages that
// need it.
type Deps struct {
	Prober       edit.Prober
	CachedProber edit.Prober
	Preprocessor Preprocessor
	LoudMaps     loudmap.Generator
	Previewer    Previewer
	Concat       Concatenator
	Transcriber  transcribe.Transcriber
	Subtitler    Subtitler
	Fillers      edit.FillerPool

	// closers run on Close, last in first out
	closers []func() error
}
