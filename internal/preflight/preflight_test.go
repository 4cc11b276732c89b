package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hermes/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil, got %v", results)
	}
}

func TestRunAll_MissingFFmpegIsNotBlocking(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectsDir = filepath.Join(base, "projects")
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Audio.FFmpegBinary = "definitely-not-ffmpeg"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	t.Setenv("PATH", "")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	if blocking := Blocking(results); len(blocking) != 0 {
		t.Fatalf("expected no blocking failures, got %+v", blocking)
	}
	last := results[len(results)-1]
	if last.Name != "FFmpeg" || last.Passed || !last.Optional {
		t.Fatalf("unexpected ffmpeg result %+v", last)
	}
}

func TestRunAll_MissingProjectsDirBlocks(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ProjectsDir = filepath.Join(t.TempDir(), "missing")
	cfg.Paths.ScratchDir = t.TempDir()
	cfg.Paths.LogDir = ""

	blocking := Blocking(RunAll(context.Background(), &cfg))
	if len(blocking) != 1 || blocking[0].Name != "Projects directory" {
		t.Fatalf("unexpected blocking results %+v", blocking)
	}
}
