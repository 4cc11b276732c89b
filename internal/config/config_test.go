package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hermes/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, "hermes"); cfg.Paths.ProjectsDir != want {
		t.Fatalf("unexpected projects dir: got %q want %q", cfg.Paths.ProjectsDir, want)
	}
	if want := filepath.Join(tempHome, ".cache", "hermes", "scratch"); cfg.Paths.ScratchDir != want {
		t.Fatalf("unexpected scratch dir: got %q want %q", cfg.Paths.ScratchDir, want)
	}
	if cfg.Export.Mode != "opie" {
		t.Fatalf("expected opie default export mode, got %q", cfg.Export.Mode)
	}
	if cfg.Alignment.ToleranceMS != 1 {
		t.Fatalf("expected 1ms tolerance, got %d", cfg.Alignment.ToleranceMS)
	}
	if cfg.AutosaveInterval().Seconds() != 120 {
		t.Fatalf("expected 120s autosave, got %s", cfg.AutosaveInterval())
	}
	if !cfg.Session.AutosaveEnabled {
		t.Fatal("expected autosave enabled by default")
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "custom.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"projects_dir": "~/work/projects",
		},
		"export": map[string]any{
			"mode": "LMF",
		},
		"audio": map[string]any{
			"quality": "Very   High",
		},
		"session": map[string]any{
			"autosave_interval_seconds": 30,
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if want := filepath.Join(tempHome, "work", "projects"); cfg.Paths.ProjectsDir != want {
		t.Fatalf("unexpected projects dir: %q", cfg.Paths.ProjectsDir)
	}
	if cfg.Export.Mode != "manifest" {
		t.Fatalf("expected lmf alias to normalize to manifest, got %q", cfg.Export.Mode)
	}
	if cfg.Audio.Quality != "very high" {
		t.Fatalf("unexpected audio quality %q", cfg.Audio.Quality)
	}
	if cfg.AutosaveInterval().Seconds() != 30 {
		t.Fatalf("unexpected autosave interval %s", cfg.AutosaveInterval())
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "autosave_interval_seconds") {
		t.Fatalf("sample config missing session section: %s", data)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !exists || cfg.Export.Mode != "opie" {
		t.Fatalf("unexpected sample config result: exists=%v mode=%q", exists, cfg.Export.Mode)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"export mode", func(c *config.Config) { c.Export.Mode = "pdf" }, "export.mode"},
		{"audio quality", func(c *config.Config) { c.Audio.Quality = "lossless" }, "audio.quality"},
		{"tolerance", func(c *config.Config) { c.Alignment.ToleranceMS = 0 }, "alignment.tolerance_ms"},
		{"autosave", func(c *config.Config) { c.Session.AutosaveIntervalSeconds = -1 }, "session.autosave_interval_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := config.NewFileStore(filepath.Join(dir, "settings.toml"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load missing settings: %v", err)
	}
	cfg.Export.Mode = "dictionary"
	cfg.Audio.Microphone = "USB Mic"
	cfg.Audio.Quality = "high"
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := store.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Export.Mode != "dictionary" || reloaded.Audio.Microphone != "USB Mic" || reloaded.Audio.Quality != "high" {
		t.Fatalf("settings not persisted: %+v", reloaded)
	}
}

func TestFileStoreRejectsInvalidSettings(t *testing.T) {
	store := &config.FileStore{Path: filepath.Join(t.TempDir(), "settings.toml")}
	cfg := config.Default()
	cfg.Export.Mode = "pdf"
	if err := store.Save(&cfg); err == nil {
		t.Fatal("expected Save to reject invalid export mode")
	}
	if _, err := os.Stat(store.Path); !os.IsNotExist(err) {
		t.Fatalf("expected no settings file on rejection, stat err=%v", err)
	}
}
