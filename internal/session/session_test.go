package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hermes/internal/audio"
	"hermes/internal/failure"
	"hermes/internal/logging"
	"hermes/internal/manifest"
	"hermes/internal/project"
	"hermes/internal/testsupport"
)

func sampleModel(t *testing.T) *project.Model {
	t.Helper()
	src := t.TempDir()
	clip := testsupport.WriteWAV(t, filepath.Join(src, "clip.wav"), testsupport.WAVFixture{DurationMS: 40})
	image := filepath.Join(src, "pic.jpg")
	testsupport.WriteFile(t, image, 32)

	m := project.New("Demo Project", project.ModeScratch, project.Metadata{Author: "Ana", TranscriptionLanguage: "cr", TranslationLanguage: "en"})
	m.Append(
		project.Transcription{Transcription: "hello", Translation: project.Text("bonjour"), Sample: audio.NewAttachedSample(clip), Image: image},
		project.Transcription{Transcription: "world"},
		project.Transcription{Transcription: "again", Translation: project.Text("")},
	)
	return m
}

type tuple struct {
	transcription string
	translation   *string
	hasAudio      bool
	hasImage      bool
}

func tuples(m *project.Model) []tuple {
	var out []tuple
	for _, row := range m.Snapshot().Rows {
		out = append(out, tuple{row.Transcription, row.Translation, row.Sample != nil, row.Image != ""})
	}
	return out
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestPathsLayout(t *testing.T) {
	p := NewPaths("/root/projects", "My Words")
	if p.ProjectDir() != filepath.Join("/root/projects", "My_Words") {
		t.Fatalf("unexpected project dir %s", p.ProjectDir())
	}
	if p.SaveFile() != filepath.Join("/root/projects", "My_Words", "saves", "My_Words.hermes") {
		t.Fatalf("unexpected save file %s", p.SaveFile())
	}
	if p.Autosave() != filepath.Join("/root/projects", "My_Words", "saves", "autosave.hermes") {
		t.Fatalf("unexpected autosave %s", p.Autosave())
	}
	if p.Template("Greetings") != filepath.Join("/root/projects", "My_Words", "templates", "Greetings.htemp") {
		t.Fatalf("unexpected template path %s", p.Template("Greetings"))
	}
	renamed := NewPaths("/root/projects", "Other")
	if renamed.SavesDir() == p.SavesDir() {
		t.Fatal("paths must follow the project name")
	}
}

func TestPathsEnsure(t *testing.T) {
	p := NewPaths(t.TempDir(), "demo")
	if err := p.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	for _, dir := range []string{p.AudioDir(), p.ImagesDir(), p.ExportDir(), p.TemplatesDir(), p.SavesDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root, logging.NewNop())
	model := sampleModel(t)
	target := mgr.Paths(model).SaveFile()

	result, err := mgr.Save(context.Background(), model, target)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if result.Words != 3 || len(result.Warnings) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	loaded, err := mgr.Load(context.Background(), target)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want, got := tuples(model), tuples(loaded)
	if len(want) != len(got) {
		t.Fatalf("row count mismatch %d vs %d", len(want), len(got))
	}
	for i := range want {
		if want[i].transcription != got[i].transcription || want[i].hasAudio != got[i].hasAudio || want[i].hasImage != got[i].hasImage {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, want[i], got[i])
		}
		if text(want[i].translation) != text(got[i].translation) {
			t.Fatalf("row %d translation mismatch", i)
		}
	}

	origRows := model.Snapshot().Rows
	loadedRows := loaded.Snapshot().Rows
	if origRows[0].ID != loadedRows[0].ID {
		t.Fatalf("row id not carried over")
	}
	if loaded.Name() != "Demo Project" || loaded.Metadata().Author != "Ana" {
		t.Fatalf("project header lost: %s %+v", loaded.Name(), loaded.Metadata())
	}

	paths := mgr.Paths(model)
	clip := loadedRows[0].Sample.Path()
	if clip != filepath.Join(paths.AudioDir(), origRows[0].ID+".wav") {
		t.Fatalf("audio not adopted into project assets: %s", clip)
	}
	if loadedRows[0].Image != filepath.Join(paths.ImagesDir(), origRows[0].ID+".jpg") {
		t.Fatalf("image not adopted into project assets: %s", loadedRows[0].Image)
	}
}

func TestSaveDocumentHasOnlyInterchangeKeys(t *testing.T) {
	mgr := NewManager(t.TempDir(), logging.NewNop())
	model := sampleModel(t)
	model.SetSourceFile("/data/story.eaf")
	target := mgr.Paths(model).SaveFile()
	if _, err := mgr.Save(context.Background(), model, target); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read save: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode save: %v", err)
	}
	want := []string{"author", "created", "transcription-language", "translation-language", "words"}
	if len(raw) != len(want) {
		t.Fatalf("expected keys %v, got %s", want, data)
	}
	for _, key := range want {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing key %q", key)
		}
	}
	var words []map[string]json.RawMessage
	if err := json.Unmarshal(raw["words"], &words); err != nil {
		t.Fatalf("decode words: %v", err)
	}
	if string(words[1]["translation"]) != `[""]` {
		t.Fatalf("absent translation should be saved as one empty string, got %s", words[1]["translation"])
	}

	if _, err := os.Stat(SidecarPath(target)); err != nil {
		t.Fatalf("expected project file beside save: %v", err)
	}
	loaded, err := mgr.Load(context.Background(), target)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SourceFile() != "/data/story.eaf" {
		t.Fatalf("source file lost: %q", loaded.SourceFile())
	}
}

func TestLoadWithoutProjectFileDerivesName(t *testing.T) {
	mgr := NewManager(t.TempDir(), logging.NewNop())
	model := sampleModel(t)
	paths := mgr.Paths(model)
	for _, target := range []string{paths.SaveFile(), paths.Autosave()} {
		if _, err := mgr.Save(context.Background(), model, target); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := os.Remove(SidecarPath(target)); err != nil {
			t.Fatalf("remove project file: %v", err)
		}
		loaded, err := mgr.Load(context.Background(), target)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if loaded.Name() != "Demo_Project" || loaded.Mode() != project.ModeScratch {
			t.Fatalf("%s: unexpected name %q mode %s", filepath.Base(target), loaded.Name(), loaded.Mode())
		}
	}
}

func TestSaveKeepsImageExtensionCase(t *testing.T) {
	mgr := NewManager(t.TempDir(), logging.NewNop())
	image := filepath.Join(t.TempDir(), "Photo.JPG")
	testsupport.WriteFile(t, image, 16)
	model := project.New("caps", project.ModeScratch, project.Metadata{})
	model.Append(project.Transcription{Transcription: "x", Image: image})
	target := mgr.Paths(model).SaveFile()
	if _, err := mgr.Save(context.Background(), model, target); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := mgr.Load(context.Background(), target)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Snapshot().Rows[0].Image; filepath.Ext(got) != ".JPG" {
		t.Fatalf("image extension changed: %s", got)
	}
}

func TestSaveWithoutTarget(t *testing.T) {
	mgr := NewManager(t.TempDir(), nil)
	if _, err := mgr.Save(context.Background(), sampleModel(t), "  "); !errors.Is(err, failure.ErrNoSaveTarget) {
		t.Fatalf("expected no save target, got %v", err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.hermes")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	mgr := NewManager(t.TempDir(), nil)
	if _, err := mgr.Load(context.Background(), path); !errors.Is(err, failure.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := mgr.Load(context.Background(), filepath.Join(t.TempDir(), "missing.hermes")); !errors.Is(err, failure.ErrValidation) {
		t.Fatalf("expected validation error for missing file, got %v", err)
	}
}

func TestConcurrentAutosaveAndManualSave(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root, nil)
	model := sampleModel(t)
	target := mgr.Paths(model).Autosave()

	saver := NewAutosaver(mgr, func() *project.Model { return model }, time.Millisecond, nil)
	if err := saver.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				model.Append(project.NewTranscription("extra", nil))
				if _, err := mgr.Save(context.Background(), model, target); err != nil {
					t.Errorf("manual save: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	saver.Stop()

	doc, err := manifest.Read(target)
	if err != nil {
		t.Fatalf("autosave file is not a complete document: %v", err)
	}
	if len(doc.Words) < 3 {
		t.Fatalf("expected at least the seed rows, got %d", len(doc.Words))
	}
	// No temp files should be left behind.
	entries, _ := os.ReadDir(filepath.Dir(target))
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Fatalf("leftover temp file %s", entry.Name())
		}
	}
}

func TestAutosaverLifecycle(t *testing.T) {
	mgr := NewManager(t.TempDir(), nil)
	model := sampleModel(t)
	saver := NewAutosaver(mgr, func() *project.Model { return model }, 5*time.Millisecond, nil)

	if err := saver.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := saver.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
	deadline := time.Now().Add(2 * time.Second)
	target := mgr.Paths(model).Autosave()
	for {
		if _, err := os.Stat(target); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("autosave never wrote")
		}
		time.Sleep(5 * time.Millisecond)
	}
	saver.Stop()
	if saver.Running() {
		t.Fatal("expected autosaver stopped")
	}
	saver.Stop()
}

func TestAutosaverRejectsZeroInterval(t *testing.T) {
	saver := NewAutosaver(NewManager(t.TempDir(), nil), func() *project.Model { return nil }, 0, nil)
	if err := saver.Start(context.Background()); !errors.Is(err, failure.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := saver.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow without a model should be a no-op: %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	l := NewLifecycle()
	if err := l.Advance(StateDataLoaded); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from empty, got %v", err)
	}
	if err := l.ChooseMode(project.ModeELAN); err != nil {
		t.Fatalf("ChooseMode: %v", err)
	}
	if err := l.Advance(StateDataLoaded); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("elan projects must select tiers first, got %v", err)
	}
	steps := []State{StateTierSelected, StateDataLoaded, StateEditable, StateEditable, StateExportReady, StateExported}
	for _, step := range steps {
		if err := l.Advance(step); err != nil {
			t.Fatalf("Advance(%s): %v", step, err)
		}
	}
	if err := l.Edit(); err != nil || l.State() != StateEditable {
		t.Fatalf("Edit after export: %v (%s)", err, l.State())
	}
	l.Opened(project.ModeScratch)
	if l.State() != StateDataLoaded || l.Mode() != project.ModeScratch {
		t.Fatalf("unexpected state after open: %s %s", l.State(), l.Mode())
	}
}

func TestLifecycleScratchSkipsTiers(t *testing.T) {
	l := NewLifecycle()
	if err := l.ChooseMode(project.ModeScratch); err != nil {
		t.Fatalf("ChooseMode: %v", err)
	}
	if err := l.Advance(StateTierSelected); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("scratch projects have no tiers, got %v", err)
	}
	if err := l.Advance(StateDataLoaded); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	l.Reset()
	if l.State() != StateEmpty {
		t.Fatalf("expected empty after reset, got %s", l.State())
	}
}
