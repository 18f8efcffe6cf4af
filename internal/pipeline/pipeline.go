package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/autocut/internal/cache"
	"github.com/kikiluvv/autocut/internal/config"
	"github.com/kikiluvv/autocut/internal/edit"
	"github.com/kikiluvv/autocut/internal/fcpxml"
	"github.com/kikiluvv/autocut/internal/ffmpeg"
	"github.com/kikiluvv/autocut/internal/logging"
	"github.com/kikiluvv/autocut/internal/loudmap"
	"github.com/kikiluvv/autocut/internal/overlays"
	"github.com/kikiluvv/autocut/internal/preprocess"
	"github.com/kikiluvv/autocut/internal/timeline"
	"github.com/kikiluvv/autocut/internal/transcribe"
	"github.com/kikiluvv/autocut/pkg/util"
)

const (
	previewSuffix = "_preview.mp4"
	finalPreview  = "final_preview.mp4"
	subtitlesFile = "subtitles.srt"
)

// Pipeline orchestrates the whole editing workflow
type Pipeline struct {
	logger zerolog.Logger
	config *config.Config
	deps   Deps
}

// New wires the ffmpeg, auto-editor and whisper collaborators from appCfg.
// Missing optional tools are logged and only fail the stages that need them.
func New(logger zerolog.Logger, appCfg *config.Config) (*Pipeline, error) {
	ffmpegExec, err := ffmpeg.New(logger, appCfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	deps := Deps{
		Prober: ffmpegExec,
		Concat: ffmpegExec,
	}

	deps.CachedProber = ffmpegExec
	if appCfg.Cache.Enabled {
		db, err := cache.Open(appCfg.Cache.Path, logger)
		if err != nil {
			logger.Warn().Err(err).Str("path", appCfg.Cache.Path).Msg("probe cache disabled")
		} else {
			deps.CachedProber = cache.NewProbeCache(db, ffmpegExec)
			deps.closers = append(deps.closers, db.Close)
		}
	}

	deps.Preprocessor = preprocess.New(logger, deps.CachedProber, ffmpegExec, appCfg.Concurrency, appCfg.Preprocess.Folder)

	autoEditor, err := loudmap.NewAutoEditor(logger, appCfg.Silence.AutoEditorPath, appCfg.Silence.Margin)
	if err != nil {
		logger.Warn().Err(err).Msg("auto-editor unavailable, previews and subtitles during build are disabled")
	} else {
		deps.Previewer = autoEditor
	}

	switch {
	case appCfg.Silence.Engine == config.EngineAutoEditor && autoEditor != nil:
		deps.LoudMaps = autoEditor
	default:
		if appCfg.Silence.Engine == config.EngineAutoEditor {
			logger.Warn().Msg("falling back to ffmpeg silencedetect for loud maps")
		}
		deps.LoudMaps = loudmap.NewFFmpegGenerator(ffmpegExec,
			appCfg.Silence.NoiseDB, appCfg.Silence.MinSilence, appCfg.Silence.Margin)
	}

	whisper, err := transcribe.NewWhisper(logger, appCfg.Transcribe.WhisperPath, appCfg.Transcribe.Model, appCfg.Transcribe.Language)
	if err != nil {
		logger.Warn().Err(err).Msg("whisper unavailable, wordless removal and subtitles are disabled")
	} else {
		deps.Transcriber = whisper
		deps.Subtitler = whisper
	}

	fillers, err := LoadFillers(logger, appCfg.Overlays)
	if err != nil {
		return nil, err
	}
	deps.Fillers = fillers

	return NewWithDeps(logger, appCfg, deps), nil
}

// NewWithDeps builds a pipeline around the given collaborators.
func NewWithDeps(logger zerolog.Logger, appCfg *config.Config, deps Deps) *Pipeline {
	if deps.CachedProber == nil {
		deps.CachedProber = deps.Prober
	}
	return &Pipeline{
		logger: logging.WithComponent(logger, "pipeline"),
		config: appCfg,
		deps:   deps,
	}
}

// LoadFillers builds the filler pool from the overlay folder, the built-in
// presets found there and the configured presets.
func LoadFillers(logger zerolog.Logger, cfg config.OverlayConfig) (*overlays.Registry, error) {
	reg := overlays.NewRegistry(cfg.Seed)
	if cfg.Folder != "" && util.FileExists(cfg.Folder) {
		if _, err := reg.LoadDir(cfg.Folder); err != nil {
			return nil, err
		}
		for name, path := range overlays.PresetPaths(cfg.Folder) {
			reg.Register(name, path)
		}
	}
	for name, path := range cfg.Presets {
		reg.Register(name, path)
	}
	logger.Debug().Strs("fillers", reg.List()).Msg("filler pool loaded")
	return reg, nil
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	var errList []error
	for i := len(p.deps.closers) - 1; i >= 0; i-- {
		errList = append(errList, p.deps.closers[i]())
	}
	return errors.Join(errList...)
}

// Build turns the videos in folder into a project file.
func (p *Pipeline) Build(ctx context.Context, folder string, opts BuildOptions) (*Project, error) {
	start := time.Now()

	folder, err := filepath.Abs(folder)
	if err != nil {
		return nil, err
	}
	if st, err := os.Stat(folder); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("input folder %s is not a directory", folder)
	}

	p.logger.Info().
		Str("input", folder).
		Bool("jcut", !opts.SkipJCut).
		Bool("wordless", !opts.JustRemoveSilence).
		Msg("starting build")

	// Stage 1: frame rate unification
	source, err := p.sourceFolder(ctx, folder, opts)
	if err != nil {
		return nil, err
	}

	files, err := util.ListMediaFiles(source)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", source, err)
	}

	prober := p.deps.CachedProber
	if opts.NoCache {
		prober = p.deps.Prober
	}

	// Stage 2: concatenation
	doc := timeline.New()
	if err := edit.Ingest(p.logger.WithContext(ctx), doc, prober, files, p.config.Concurrency); err != nil {
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	p.logger.Info().Int("files", len(doc.Assets())).Str("duration", doc.Duration().String()).Msg("videos concatenated")

	// Stage 3: silence removal
	store := loudmap.Store{Dir: filepath.Join(source, p.config.Silence.Folder)}
	if err := p.generateLoudMaps(ctx, doc, store); err != nil {
		return nil, err
	}
	if _, err := edit.RemoveSilence(doc, store, 0); err != nil {
		return nil, err
	}
	p.logger.Info().Int("clips", doc.Len()).Str("duration", doc.Duration().String()).Msg("silence removed")

	// Stage 4: wordless removal
	if !opts.JustRemoveSilence {
		if err := p.removeWordless(ctx, doc); err != nil {
			return nil, err
		}
	}

	// Stage 5: J-Cut
	if !opts.SkipJCut {
		jcut := edit.JCutOptions{MinDuration: p.config.JCut.MinDuration, Overlap: p.config.JCut.Overlap}
		if err := edit.JCut(doc, jcut); err != nil {
			return nil, fmt.Errorf("j-cut failed: %w", err)
		}
		p.logger.Info().Int("clips", doc.Len()).Msg("j-cut applied")
	}

	project := &Project{
		Name:         p.config.ProjectName,
		InputFolder:  folder,
		SourceFolder: source,
		CreatedAt:    start,
	}

	// Stage 6: filler overlay
	if opts.Filler || p.config.Overlays.Enabled {
		used, err := p.addFiller(ctx, doc, prober)
		if err != nil {
			return nil, err
		}
		project.Filler = used
	}

	// Stage 7: subtitles from the silence-cut preview
	if opts.Subtitles {
		var sources []string
		for _, asset := range doc.Assets() {
			sources = append(sources, asset.Path)
		}
		srt, err := p.buildSubtitles(ctx, folder, store, sources)
		if err != nil {
			return nil, err
		}
		project.Subtitles = srt
	}

	// Stage 8: project file
	out := p.outputPath(folder, opts.Output)
	err = fcpxml.WriteFile(out, doc, fcpxml.Options{
		EventName:   p.config.ProjectName,
		ProjectName: p.config.ProjectName,
		UID:         uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write project: %w", err)
	}

	fillSummary(project, doc)
	project.OutputPath = out

	p.logger.Info().
		Str("output", out).
		Str("duration", doc.Duration().String()).
		Int("clips", project.Clips).
		Dur("elapsed", time.Since(start)).
		Msg("build complete")

	return project, nil
}

func (p *Pipeline) sourceFolder(ctx context.Context, folder string, opts BuildOptions) (string, error) {
	switch {
	case opts.SkipPreprocess:
		return folder, nil
	case opts.AlreadyPreprocessed:
		source := preprocess.Folder(folder, p.config.Preprocess.Folder)
		if !util.FileExists(source) {
			return "", fmt.Errorf("no preprocessed folder at %s", source)
		}
		return source, nil
	case p.deps.Preprocessor == nil:
		return "", fmt.Errorf("preprocessing is not available")
	}

	res, err := p.deps.Preprocessor.Run(ctx, folder)
	if err != nil {
		return "", fmt.Errorf("preprocessing failed: %w", err)
	}
	p.logger.Info().Int("fps", res.TargetFPS).Str("folder", res.Folder).Msg("videos preprocessed")
	return res.Folder, nil
}

func (p *Pipeline) generateLoudMaps(ctx context.Context, doc *timeline.Document, store loudmap.Store) error {
	if p.deps.LoudMaps == nil {
		return fmt.Errorf("no loud map generator configured")
	}
	if err := util.EnsureDir(store.Dir); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.config.Concurrency))
	for _, asset := range doc.Assets() {
		g.Go(func() error {
			src := loudmap.Source{Path: asset.Path, FPS: asset.FPS, Frames: asset.Frames}
			if err := p.deps.LoudMaps.Generate(gctx, src, store.Path(asset.Path)); err != nil {
				return fmt.Errorf("loud map for %s: %w", asset.Path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Pipeline) removeWordless(ctx context.Context, doc *timeline.Document) error {
	if p.deps.Transcriber == nil {
		return fmt.Errorf("wordless removal needs a transcriber, install whisper or pass --just-remove-silence")
	}

	var paths []string
	for _, ref := range doc.Refs() {
		asset, _ := doc.Asset(ref)
		paths = append(paths, asset.Path)
	}

	segments, err := transcribe.All(ctx, p.deps.Transcriber, paths, p.config.Concurrency)
	if err != nil {
		return err
	}

	opts := edit.WordlessOptions{
		LeftMargin:  p.config.Transcribe.LeftMargin,
		RightMargin: p.config.Transcribe.RightMargin,
	}
	if err := edit.RemoveWordless(doc, segments, opts); err != nil {
		return fmt.Errorf("wordless removal failed: %w", err)
	}

	p.logger.Info().Int("clips", doc.Len()).Str("duration", doc.Duration().String()).Msg("wordless clips removed")
	return nil
}

func (p *Pipeline) addFiller(ctx context.Context, doc *timeline.Document, prober edit.Prober) (string, error) {
	if p.deps.Fillers == nil {
		p.logger.Warn().Msg("no filler pool configured")
		return "", nil
	}

	used, err := edit.AddFiller(ctx, doc, p.deps.Fillers, prober, edit.OverlayOptions{ShiftRatio: p.config.Overlays.ShiftRatio})
	if err != nil {
		return "", fmt.Errorf("filler overlay failed: %w", err)
	}
	if used == "" {
		p.logger.Warn().Str("folder", p.config.Overlays.Folder).Msg("no filler video found, overlay skipped")
		return "", nil
	}

	p.logger.Info().Str("filler", used).Msg("filler overlay added")
	return used, nil
}

func (p *Pipeline) buildSubtitles(ctx context.Context, folder string, store loudmap.Store, files []string) (string, error) {
	if p.deps.Previewer == nil || p.deps.Concat == nil {
		return "", fmt.Errorf("subtitles during build need auto-editor previews, use the subtitles command on a rendered video instead")
	}

	previews := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.config.Concurrency))
	for i, f := range files {
		previews[i] = filepath.Join(store.Dir, util.Stem(f)+previewSuffix)
		g.Go(func() error {
			return p.deps.Previewer.Preview(gctx, f, previews[i])
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("preview failed: %w", err)
	}

	final := filepath.Join(store.Dir, finalPreview)
	if err := p.deps.Concat.Concat(ctx, ffmpeg.ConcatOptions{Inputs: previews, Output: final}); err != nil {
		return "", fmt.Errorf("failed to join previews: %w", err)
	}

	return p.subtitlesFor(ctx, final, folder)
}

// Subtitles writes an SRT for an already rendered video next to it.
func (p *Pipeline) Subtitles(ctx context.Context, video string) (string, error) {
	video, err := filepath.Abs(video)
	if err != nil {
		return "", err
	}
	if !util.FileExists(video) {
		return "", fmt.Errorf("video %s does not exist", video)
	}
	return p.subtitlesFor(ctx, video, filepath.Dir(video))
}

func (p *Pipeline) subtitlesFor(ctx context.Context, video, folder string) (string, error) {
	if p.deps.Subtitler == nil {
		return "", fmt.Errorf("subtitles need whisper")
	}

	out := filepath.Join(folder, p.config.Subtitles.Folder, subtitlesFile)
	if err := p.deps.Subtitler.Subtitles(ctx, video, out, p.config.Subtitles.WordLevel); err != nil {
		return "", fmt.Errorf("subtitle generation failed: %w", err)
	}
	return out, nil
}

func (p *Pipeline) outputPath(folder, override string) string {
	out := override
	if out == "" {
		out = p.config.Output
	}
	if out == "" {
		out = "my_project.fcpxml"
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(folder, out)
	}
	return out
}

// Inspect reads a project file back and summarizes it.
func Inspect(path string) (*Project, error) {
	parsed, err := fcpxml.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := fcpxml.ToDocument(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild %s: %w", path, err)
	}

	project := &Project{OutputPath: path}
	if len(parsed.Library.Events) > 0 && len(parsed.Library.Events[0].Projects) > 0 {
		project.Name = parsed.Library.Events[0].Projects[0].Name
	}
	fillSummary(project, doc)
	return project, nil
}

func fillSummary(project *Project, doc *timeline.Document) {
	project.Duration = doc.Duration()
	project.Assets = len(doc.Assets())
	project.Clips = doc.Len()
	project.Lanes = doc.MaxLane() + 1
}
