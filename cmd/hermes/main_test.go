package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hermes/internal/config"
	"hermes/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	dataDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\nprojects_dir = %q\nlog_dir = %q\nscratch_dir = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.ProjectsDir,
		cfg.Paths.LogDir,
		cfg.Paths.ScratchDir,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, dataDir: filepath.Join(base, "data")}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

// writeFixture lays out a transcript with hello/bonjour at 1000-2000 ms and
// night/nuit at 2500-3000 ms next to its recording.
func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	testsupport.WriteWAV(t, filepath.Join(dir, "rec.wav"), testsupport.WAVFixture{DurationMS: 4000})
	return testsupport.WriteEAF(t, filepath.Join(dir, "greetings.eaf"), testsupport.EAFFixture{
		RelativeMediaURL: "./rec.wav",
		Tiers: []testsupport.EAFTier{
			{ID: "words", Annotations: []testsupport.EAFAnnotation{
				{Start: 1000, End: 2000, Text: "hello"},
				{Start: 2500, End: 3000, Text: "night"},
			}},
			{ID: "french", Parent: "words", Annotations: []testsupport.EAFAnnotation{
				{Text: "bonjour"},
				{Text: "nuit"},
			}},
		},
	})
}

func importFixture(t *testing.T, env *cliTestEnv) {
	t.Helper()
	eaf := writeFixture(t, env.dataDir)
	out, _, err := runCLI(t, env, "", "import", eaf, "-t", "words", "-l", "french")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Created 2 rows")
	requireContains(t, out, "Saved 2 rows")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "", "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, env, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
}

func TestConfigSetPersists(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "", "config", "set", "export.mode", "Dictionary"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, _, err := runCLI(t, env, "", "config", "set", "audio.quality", "Very  High"); err != nil {
		t.Fatalf("config set quality: %v", err)
	}
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if cfg.Export.Mode != "dictionary" || cfg.Audio.Quality != "very high" {
		t.Fatalf("settings not persisted: %+v %+v", cfg.Export, cfg.Audio)
	}
	if _, _, err := runCLI(t, env, "", "config", "set", "export.mode", "pdf"); err == nil {
		t.Fatal("expected invalid mode to be rejected")
	}
	if _, _, err := runCLI(t, env, "", "config", "set", "nope", "1"); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestTiersCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	eaf := writeFixture(t, env.dataDir)

	out, _, err := runCLI(t, env, "", "--json", "tiers", eaf)
	if err != nil {
		t.Fatalf("tiers: %v", err)
	}
	var payload struct {
		Tiers []struct {
			Name        string `json:"name"`
			Parent      string `json:"parent"`
			Annotations int    `json:"annotations"`
		} `json:"tiers"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode tiers: %v\n%s", err, out)
	}
	if len(payload.Tiers) != 2 || payload.Tiers[1].Parent != "words" || payload.Tiers[0].Annotations != 2 {
		t.Fatalf("unexpected tiers: %+v", payload.Tiers)
	}
}

func TestImportRequiresTranscriptionTier(t *testing.T) {
	env := setupCLITestEnv(t)
	eaf := writeFixture(t, env.dataDir)
	_, _, err := runCLI(t, env, "", "import", eaf)
	if err == nil || !strings.Contains(err.Error(), "--transcription-tier") {
		t.Fatalf("expected missing tier error, got %v", err)
	}
}

func TestImportShowAndEditRows(t *testing.T) {
	env := setupCLITestEnv(t)
	importFixture(t, env)

	if _, _, err := runCLI(t, env, "", "row", "add", "greetings", "water", "--translation", "eau"); err != nil {
		t.Fatalf("row add: %v", err)
	}
	if _, _, err := runCLI(t, env, "", "row", "edit", "greetings", "1", "--clear-translation"); err != nil {
		t.Fatalf("row edit: %v", err)
	}

	out, _, err := runCLI(t, env, "", "--json", "show", "greetings")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var rows []rowJSON
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v\n%s", err, out)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].Transcription != "hello" || rows[0].Translation == nil || *rows[0].Translation != "bonjour" || !rows[0].HasAudio {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Translation != nil {
		t.Fatalf("row 1 translation should be cleared: %+v", rows[1])
	}
	if rows[2].Transcription != "water" || rows[2].HasAudio {
		t.Fatalf("row 2 = %+v", rows[2])
	}

	out, _, err = runCLI(t, env, "", "show", "greetings", "--filter", "WAT")
	if err != nil {
		t.Fatalf("show filter: %v", err)
	}
	requireContains(t, out, "water")
	if strings.Contains(out, "hello") {
		t.Fatalf("filter should hide hello:\n%s", out)
	}
}

func TestExportDictionary(t *testing.T) {
	env := setupCLITestEnv(t)
	importFixture(t, env)
	dest := filepath.Join(t.TempDir(), "out")

	out, _, err := runCLI(t, env, "", "export", "greetings", "--mode", "dictionary", "--dest", dest, "--exclude", "1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Exported 1 rows (dictionary)")

	csv := testsupport.ReadFile(t, filepath.Join(dest, "dictionary.csv"))
	requireContains(t, csv, "Transcription,Translation,Audio,Image")
	requireContains(t, csv, "hello,bonjour,sounds/hello-0.wav,")
	if strings.Contains(csv, "night") {
		t.Fatalf("excluded row exported:\n%s", csv)
	}

	// The destination is remembered, and a non-empty destination needs --force.
	if _, _, err := runCLI(t, env, "", "export", "greetings", "--mode", "dictionary"); err == nil {
		t.Fatal("expected non-empty destination to be refused")
	}
	out, _, err = runCLI(t, env, "", "export", "greetings", "--mode", "dictionary", "--force")
	if err != nil {
		t.Fatalf("forced export: %v", err)
	}
	requireContains(t, out, "Exported 2 rows")
}

func TestTemplateCreateAndLoad(t *testing.T) {
	env := setupCLITestEnv(t)
	importFixture(t, env)

	out, _, err := runCLI(t, env, "", "template", "create", "greetings", "--fields", "transcription")
	if err != nil {
		t.Fatalf("template create: %v", err)
	}
	requireContains(t, out, "Wrote 2 rows (transcription)")
	path := strings.TrimSpace(out[strings.LastIndex(out, " to ")+4:])

	if _, _, err := runCLI(t, env, "", "new", "fresh"); err != nil {
		t.Fatalf("new: %v", err)
	}
	out, _, err = runCLI(t, env, "", "template", "load", "fresh", path)
	if err != nil {
		t.Fatalf("template load: %v", err)
	}
	requireContains(t, out, "Added 2 rows")

	out, _, err = runCLI(t, env, "", "show", "fresh")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "night")
}

func TestShellSession(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "", "new", "words"); err != nil {
		t.Fatalf("new: %v", err)
	}
	dest := filepath.Join(t.TempDir(), "opie")
	script := strings.Join([]string{
		"add tree | arbre",
		"add sun",
		"edit 1 sunshine | soleil",
		"exclude 0",
		"bogus",
		"export opie " + dest,
		"quit",
	}, "\n")
	out, _, err := runCLI(t, env, script, "shell", "words")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	requireContains(t, out, "added row 1")
	requireContains(t, out, `unknown command "bogus"`)
	requireContains(t, out, "Exported 1 rows (opie)")
	if got := testsupport.ReadFile(t, filepath.Join(dest, "translations", "word1.txt")); got != "soleil" {
		t.Fatalf("translation = %q", got)
	}

	out, _, err = runCLI(t, env, "", "show", "words")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "sunshine")
}

func TestProjectsListsSaves(t *testing.T) {
	env := setupCLITestEnv(t)
	importFixture(t, env)

	out, _, err := runCLI(t, env, "", "--json", "projects")
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	var entries []struct {
		Name  string `json:"name"`
		Mode  string `json:"mode"`
		Words int    `json:"words"`
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode projects: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].Name != "greetings" || entries[0].Mode != "elan" || entries[0].Words != 2 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestCleanupAndCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := os.MkdirAll(filepath.Join(env.cfg.Paths.ScratchDir, "session-999999999-20200101T000000Z-abc"), 0o755); err != nil {
		t.Fatalf("mkdir scratch: %v", err)
	}
	out, _, err := runCLI(t, env, "", "cleanup")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "Removed 1 scratch directories")

	out, _, err = runCLI(t, env, "", "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Projects directory")
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	content := "INFO session: project saved\nWARN export: row exported without audio\nINFO export: export finished\n"
	if err := os.WriteFile(filepath.Join(env.cfg.Paths.LogDir, "hermes.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, env, "", "logs", "-n", "1", "--grep", "warn")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != "WARN export: row exported without audio" {
		t.Fatalf("unexpected logs output:\n%s", out)
	}
}
