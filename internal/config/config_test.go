package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.Concurrency)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `concurrency: 2
silence:
  engine: ffmpeg
  margin: 0.1
jcut:
  overlap: 0.25
overlays:
  enabled: true
  seed: 7
  presets:
    subway_surfers: /assets/subway.mp4
watch:
  debounce: 750ms
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", cfg.Concurrency)
	}
	if cfg.Silence.Engine != EngineFFmpeg {
		t.Errorf("expected ffmpeg engine, got %s", cfg.Silence.Engine)
	}
	if cfg.Silence.Folder != "remove_silence" {
		t.Errorf("expected untouched default folder, got %s", cfg.Silence.Folder)
	}
	if cfg.JCut.Overlap != 0.25 || cfg.JCut.MinDuration != 1.0 {
		t.Errorf("unexpected jcut config %+v", cfg.JCut)
	}
	if !cfg.Overlays.Enabled || cfg.Overlays.Seed != 7 {
		t.Errorf("unexpected overlay config %+v", cfg.Overlays)
	}
	if cfg.Overlays.Presets["subway_surfers"] != "/assets/subway.mp4" {
		t.Errorf("expected preset to load, got %v", cfg.Overlays.Presets)
	}
	if cfg.Watch.Debounce != 750*time.Millisecond {
		t.Errorf("expected 750ms debounce, got %s", cfg.Watch.Debounce)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("silence:\n  engine: magic\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.ProjectName = "Episode 4"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ProjectName != "Episode 4" {
		t.Errorf("expected project name to survive, got %q", loaded.ProjectName)
	}
	if loaded.Watch.Debounce != cfg.Watch.Debounce {
		t.Errorf("expected debounce %s, got %s", cfg.Watch.Debounce, loaded.Watch.Debounce)
	}
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 9

	ctx := WithConfig(context.Background(), cfg)
	if FromContext(ctx).Concurrency != 9 {
		t.Error("expected config from context")
	}
	if FromContext(context.Background()).Concurrency != 4 {
		t.Error("expected defaults without config in context")
	}
}
