package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hermes/internal/audio"
	"hermes/internal/failure"
	"hermes/internal/manifest"
	"hermes/internal/project"
	"hermes/internal/testsupport"
)

func attachedClip(t *testing.T, dir, name string) *audio.Sample {
	t.Helper()
	path := testsupport.WriteWAV(t, filepath.Join(dir, name), testsupport.WAVFixture{DurationMS: 50})
	return audio.NewAttachedSample(path)
}

func TestOPIELayoutAndIdempotentRerun(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	image := filepath.Join(src, "pic.PNG")
	testsupport.WriteFile(t, image, 16)

	m := project.New("demo", project.ModeScratch, project.Metadata{})
	m.Append(
		project.Transcription{Transcription: "hello", Translation: project.Text("bonjour"), Sample: attachedClip(t, src, "a.wav"), Image: image},
		project.Transcription{Transcription: "world"},
	)

	for run := 0; run < 2; run++ {
		summary, err := Run(context.Background(), m.Snapshot(), Options{Mode: ModeOPIE, Destination: dest})
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if summary.Exported != 2 || len(summary.Warnings) != 0 {
			t.Fatalf("run %d: unexpected summary %+v", run, summary)
		}
	}

	for _, rel := range []string{"words/word0.txt", "translations/word0.txt", "sounds/word0.wav", "images/word0.PNG", "words/word1.txt", "translations/word1.txt"} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}
	if got := testsupport.ReadFile(t, filepath.Join(dest, "translations", "word0.txt")); got != "bonjour" {
		t.Fatalf("unexpected translation file %q", got)
	}
	if got := testsupport.ReadFile(t, filepath.Join(dest, "translations", "word1.txt")); got != "" {
		t.Fatalf("row without translation should produce an empty translation file, got %q", got)
	}
	entries, _ := os.ReadDir(filepath.Join(dest, "words"))
	if len(entries) != 2 {
		t.Fatalf("expected 2 word files after rerun, got %d", len(entries))
	}
}

func TestDictionaryTwoRowsWithEmptyImage(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	m := project.New("demo", project.ModeScratch, project.Metadata{})
	m.Append(
		project.Transcription{Transcription: "hello", Translation: project.Text("bonjour"), Sample: attachedClip(t, src, "a.wav")},
		project.Transcription{Transcription: "good night", Translation: project.Text("bonne nuit")},
	)

	if _, err := Run(context.Background(), m.Snapshot(), Options{Mode: ModeDictionary, Destination: dest}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	records := readCSV(t, filepath.Join(dest, DictionaryFile))
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %v", records)
	}
	if strings.Join(records[0], ",") != "Transcription,Translation,Audio,Image" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][2] != "sounds/hello-0.wav" || records[1][3] != "" {
		t.Fatalf("unexpected first row %v", records[1])
	}
	if records[2][0] != "good night" || records[2][2] != "" || records[2][3] != "" {
		t.Fatalf("unexpected second row %v", records[2])
	}
	if _, err := os.Stat(filepath.Join(dest, "sounds", "hello-0.wav")); err != nil {
		t.Fatalf("expected copied clip: %v", err)
	}
}

func TestDictionaryAbortLeavesHeaderOnly(t *testing.T) {
	dest := t.TempDir()
	stale := filepath.Join(dest, DictionaryFile)
	if err := os.WriteFile(stale, []byte("Transcription,Translation,Audio,Image\nold,row,,\n"), 0o644); err != nil {
		t.Fatalf("seed csv: %v", err)
	}
	m := project.New("demo", project.ModeScratch, project.Metadata{})
	m.Append(project.Transcription{Transcription: "new"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, m.Snapshot(), Options{Mode: ModeDictionary, Destination: dest}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled run, got %v", err)
	}
	records := readCSV(t, stale)
	if len(records) != 1 || records[0][0] != "Transcription" {
		t.Fatalf("expected truncated csv with header only, got %v", records)
	}
}

func TestDictionaryKeepsImageExtensionCase(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	image := filepath.Join(src, "Photo.JPG")
	testsupport.WriteFile(t, image, 16)
	m := project.New("demo", project.ModeScratch, project.Metadata{})
	m.Append(project.Transcription{Transcription: "cat", Image: image})

	if _, err := Run(context.Background(), m.Snapshot(), Options{Mode: ModeDictionary, Destination: dest}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	records := readCSV(t, filepath.Join(dest, DictionaryFile))
	if records[1][3] != "images/cat-0.JPG" {
		t.Fatalf("unexpected image cell %q", records[1][3])
	}
	if _, err := os.Stat(filepath.Join(dest, "images", "cat-0.JPG")); err != nil {
		t.Fatalf("expected copied image: %v", err)
	}
}

func TestDictionarySkipsEmptyTranscriptions(t *testing.T) {
	dest := t.TempDir()
	m := project.New("demo", project.ModeScratch, project.Metadata{})
	m.Append(
		project.Transcription{Transcription: ""},
		project.Transcription{Transcription: "   ", Translation: project.Text("blank")},
		project.Transcription{Transcription: "kept"},
	)

	summary, err := Run(context.Background(), m.Snapshot(), Options{Mode: ModeDictionary, Destination: dest})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Exported != 1 || summary.Skipped != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	records := readCSV(t, filepath.Join(dest, DictionaryFile))
	if len(records) != 2 || records[1][0] != "kept" {
		t.Fatalf("unexpected records %v", records)
	}
}

func TestManifestWordsRebuiltEachRun(t *testing.T) {
	dest := t.TempDir()
	m := project.New("demo", project.ModeScratch, project.Metadata{Author: "Ana", TranscriptionLanguage: "cr", TranslationLanguage: "en"})
	m.Append(project.Transcription{Transcription: "one"}, project.Transcription{Transcription: "two"})

	for run := 0; run < 2; run++ {
		if _, err := Run(context.Background(), m.Snapshot(), Options{Mode: ModeManifest, Destination: dest}); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	doc, err := manifest.Read(filepath.Join(dest, ManifestFile))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(doc.Words) != 2 || doc.Author != "Ana" || doc.TranscriptionLanguage != "cr" {
		t.Fatalf("unexpected manifest %+v", doc)
	}
}

func TestSelectionAndProgress(t *testing.T) {
	dest := t.TempDir()
	m := project.New("demo", project.ModeScratch, project.Metadata{})
	m.Append(project.Transcription{Transcription: "a"}, project.Transcription{Transcription: "b"}, project.Transcription{Transcription: "c"})
	snap := m.Snapshot()
	selection := map[string]bool{snap.Rows[0].ID: true, snap.Rows[2].ID: true}

	var calls [][2]int
	summary, err := Run(context.Background(), snap, Options{
		Mode:        ModeOPIE,
		Destination: dest,
		Selection:   selection,
		Progress:    func(done, total int) { calls = append(calls, [2]int{done, total}) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Exported != 2 {
		t.Fatalf("expected 2 exported, got %d", summary.Exported)
	}
	if len(calls) != 2 || calls[0] != [2]int{1, 2} || calls[1] != [2]int{2, 2} {
		t.Fatalf("unexpected progress calls %v", calls)
	}
	if _, err := os.Stat(filepath.Join(dest, "words", "word1.txt")); !os.IsNotExist(err) {
		t.Fatalf("unselected row was exported")
	}
}

func TestRunRequiresDestinationAndSelection(t *testing.T) {
	m := project.New("demo", project.ModeScratch, project.Metadata{})
	m.Append(project.Transcription{Transcription: "a"})

	if _, err := Run(context.Background(), m.Snapshot(), Options{Mode: ModeOPIE}); !errors.Is(err, failure.ErrNoExportLocation) {
		t.Fatalf("expected no export location, got %v", err)
	}
	_, err := Run(context.Background(), m.Snapshot(), Options{Mode: ModeOPIE, Destination: t.TempDir(), Selection: map[string]bool{}})
	if !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("expected nothing selected, got %v", err)
	}
}

func TestUnavailableAudioIsWarningOnly(t *testing.T) {
	dest := t.TempDir()
	scratch, err := audio.NewScratch(t.TempDir())
	if err != nil {
		t.Fatalf("NewScratch: %v", err)
	}
	orphan := audio.NewSample(nil, 0, 100, &audio.Extractor{Scratch: scratch, Slicer: audio.PCMSlicer{}})
	m := project.New("demo", project.ModeELAN, project.Metadata{})
	m.Append(project.Transcription{Transcription: "hello", Sample: orphan})

	summary, err := Run(context.Background(), m.Snapshot(), Options{Mode: ModeOPIE, Destination: dest})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Warnings) != 1 || !errors.Is(summary.Warnings[0].Err, failure.ErrAudioUnavailable) {
		t.Fatalf("expected one audio warning, got %+v", summary.Warnings)
	}
	if _, err := os.Stat(filepath.Join(dest, "words", "word0.txt")); err != nil {
		t.Fatalf("text should still be written: %v", err)
	}
}

func TestParseModeAliases(t *testing.T) {
	cases := map[string]Mode{"OPIE": ModeOPIE, "csv": ModeDictionary, " lmf ": ModeManifest}
	for input, want := range cases {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseMode("pdf"); !errors.Is(err, failure.ErrValidation) {
		t.Errorf("expected validation error for unknown mode, got %v", err)
	}
}

func TestDestinationEmpty(t *testing.T) {
	dir := t.TempDir()
	empty, err := DestinationEmpty(dir)
	if err != nil || !empty {
		t.Fatalf("expected empty, got %v %v", empty, err)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "x"), 1)
	empty, err = DestinationEmpty(dir)
	if err != nil || empty {
		t.Fatalf("expected non-empty, got %v %v", empty, err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}
