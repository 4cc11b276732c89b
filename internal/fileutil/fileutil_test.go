package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerifiedOntoItself(t *testing.T) {
	src := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(src, []byte("riff"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, src); err != nil {
		t.Fatalf("self copy should be a no-op: %v", err)
	}
	got, err := os.ReadFile(src)
	if err != nil || string(got) != "riff" {
		t.Fatalf("self copy damaged file: %q %v", got, err)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "nonexistent"), filepath.Join(dir, "dst.bin")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "saves", "project.hermes")

	if err := WriteFileAtomic(target, []byte(`{"v":1}`), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(target, []byte(`{"v":2}`), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("unexpected content %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestEnsureDirIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "words")
	for i := 0; i < 2; i++ {
		got, err := EnsureDir(path)
		if err != nil {
			t.Fatalf("EnsureDir pass %d: %v", i, err)
		}
		if got != path {
			t.Fatalf("EnsureDir returned %q, want %q", got, path)
		}
	}
}

func TestDirEmpty(t *testing.T) {
	dir := t.TempDir()
	empty, err := DirEmpty(dir)
	if err != nil || !empty {
		t.Fatalf("expected empty dir, got %v %v", empty, err)
	}
	missing, err := DirEmpty(filepath.Join(dir, "missing"))
	if err != nil || !missing {
		t.Fatalf("expected missing dir to count as empty, got %v %v", missing, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "word0.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty, err = DirEmpty(dir)
	if err != nil || empty {
		t.Fatalf("expected non-empty dir, got %v %v", empty, err)
	}
}

func TestSameContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	for path, body := range map[string]string{a: "same", b: "same", c: "diff"} {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if !SameContent(a, b) {
		t.Fatal("expected identical files to match")
	}
	if SameContent(a, c) || SameContent(a, filepath.Join(dir, "missing")) {
		t.Fatal("expected differing or missing files not to match")
	}
	digest, err := Digest(a)
	if err != nil || len(digest) != 64 {
		t.Fatalf("unexpected digest %q, %v", digest, err)
	}
}
