package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Silence engines
const (
	EngineAutoEditor = "auto-editor"
	EngineFFmpeg     = "ffmpeg"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	Concurrency int    `yaml:"concurrency"`
	Output      string `yaml:"output"`
	ProjectName string `yaml:"project_name"`

	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Silence    SilenceConfig    `yaml:"silence"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	JCut       JCutConfig       `yaml:"jcut"`
	Overlays   OverlayConfig    `yaml:"overlays"`
	Cache      CacheConfig      `yaml:"cache"`
	Subtitles  SubtitleConfig   `yaml:"subtitles"`
	Watch      WatchConfig      `yaml:"watch"`
}

type FFmpegConfig struct {
	Threads int `yaml:"threads"`
}

type PreprocessConfig struct {
	Folder string `yaml:"folder"`
}

type SilenceConfig struct {
	Engine         string  `yaml:"engine"`
	AutoEditorPath string  `yaml:"auto_editor_path"`
	Margin         float64 `yaml:"margin"`
	Folder         string  `yaml:"folder"`
	NoiseDB        float64 `yaml:"noise_db"`
	MinSilence     float64 `yaml:"min_silence"`
}

type TranscribeConfig struct {
	WhisperPath string  `yaml:"whisper_path"`
	Model       string  `yaml:"model"`
	Language    string  `yaml:"language"`
	LeftMargin  float64 `yaml:"left_margin"`
	RightMargin float64 `yaml:"right_margin"`
}

type JCutConfig struct {
	MinDuration float64 `yaml:"min_duration"`
	Overlap     float64 `yaml:"overlap"`
}

type OverlayConfig struct {
	Enabled    bool              `yaml:"enabled"`
	Folder     string            `yaml:"folder"`
	ShiftRatio float64           `yaml:"shift_ratio"`
	Seed       uint64            `yaml:"seed"`
	Presets    map[string]string `yaml:"presets"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type SubtitleConfig struct {
	Folder    string `yaml:"folder"`
	WordLevel bool   `yaml:"word_level"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the build cannot run with.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	switch c.Silence.Engine {
	case EngineAutoEditor, EngineFFmpeg:
	default:
		return fmt.Errorf("unknown silence engine %q", c.Silence.Engine)
	}
	if c.Silence.Margin < 0 || c.Transcribe.LeftMargin < 0 || c.Transcribe.RightMargin < 0 {
		return fmt.Errorf("margins must not be negative")
	}
	if c.JCut.MinDuration <= 0 || c.JCut.Overlap < 0 {
		return fmt.Errorf("jcut needs a positive min_duration and a non-negative overlap")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch debounce must not be negative")
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Concurrency: 4,
		Output:      "my_project.fcpxml",
		ProjectName: "Timeline 1",
		FFmpeg: FFmpegConfig{
			Threads: 0,
		},
		Preprocess: PreprocessConfig{
			Folder: "preprocessed",
		},
		Silence: SilenceConfig{
			Engine:         EngineAutoEditor,
			AutoEditorPath: "auto-editor",
			Margin:         0.2,
			Folder:         "remove_silence",
			NoiseDB:        -30,
			MinSilence:     0.5,
		},
		Transcribe: TranscribeConfig{
			WhisperPath: "whisper",
			Model:       "small",
			LeftMargin:  0.3,
			RightMargin: 0.3,
		},
		JCut: JCutConfig{
			MinDuration: 1.0,
			Overlap:     0.5,
		},
		Overlays: OverlayConfig{
			Enabled:    false,
			Folder:     "./assets/filler",
			ShiftRatio: 20,
			Presets:    make(map[string]string),
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir(), ".autocut", "probe.db"),
		},
		Subtitles: SubtitleConfig{
			Folder:    "timeline",
			WordLevel: true,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

// DefaultPath is where `config init` writes.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".autocut", "config.yaml")
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		DefaultPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
