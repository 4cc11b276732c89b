package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"hermes/internal/audio"
	"hermes/internal/config"
	"hermes/internal/deps"
	"hermes/internal/failure"
	"hermes/internal/language"
	"hermes/internal/logging"
	"hermes/internal/project"
	"hermes/internal/registry"
	"hermes/internal/session"
)

// ErrNoProject is returned by operations that need an active project.
var ErrNoProject = errors.New("no project open")

// Options configures a Converter.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Locator is asked for the source recording when the ELAN file's linked
	// media cannot be found. Nil leaves the track unresolved.
	Locator audio.Locator
	// Registry, when set, records every save for the open-project flow.
	Registry *registry.Store
	// Slicer overrides the clip extractor; nil picks PCM or ffmpeg per track.
	Slicer audio.Slicer
}

// Converter holds the active project.
type Converter struct {
	cfg       *config.Config
	logger    *slog.Logger
	locator   audio.Locator
	registry  *registry.Store
	manager   *session.Manager
	lifecycle *session.Lifecycle
	scratch   *audio.Scratch
	extractor *audio.Extractor

	mu         sync.Mutex
	model      *project.Model
	source     *elanSource
	excluded   map[string]bool
	saveTarget string
	autosaver  *session.Autosaver
}

// New builds a converter with its own scratch directory.
func New(opts Options) (*Converter, error) {
	if opts.Config == nil {
		return nil, errors.New("converter requires a config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	scratch, err := audio.NewScratch(opts.Config.Paths.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("create scratch: %w", err)
	}
	slicer := opts.Slicer
	if slicer == nil {
		slicer = audio.NewAutoSlicer(deps.ResolveFFmpeg(opts.Config.FFmpegBinary()))
	}
	return &Converter{
		cfg:       opts.Config,
		logger:    logging.NewComponentLogger(logger, "converter"),
		locator:   opts.Locator,
		registry:  opts.Registry,
		manager:   session.NewManager(opts.Config.Paths.ProjectsDir, logger),
		lifecycle: session.NewLifecycle(),
		scratch:   scratch,
		extractor: &audio.Extractor{Scratch: scratch, Slicer: slicer},
		excluded:  map[string]bool{},
	}, nil
}

// Close stops autosave and removes the scratch directory.
func (c *Converter) Close() error {
	c.StopAutosave()
	return c.scratch.Remove()
}

// State returns the lifecycle state.
func (c *Converter) State() session.State { return c.lifecycle.State() }

// Mode returns how the active project was started.
func (c *Converter) Mode() project.Mode { return c.lifecycle.Mode() }

// Model returns the active project, or nil.
func (c *Converter) Model() *project.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Paths returns the active project's layout.
func (c *Converter) Paths() (session.Paths, error) {
	model, err := c.activeModel()
	if err != nil {
		return session.Paths{}, err
	}
	return c.manager.Paths(model), nil
}

// SaveTarget returns the file Save writes to, or "".
func (c *Converter) SaveTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveTarget
}

// NewScratchProject starts an empty project rows are added to by hand.
func (c *Converter) NewScratchProject(name string, meta project.Metadata) error {
	c.teardown()
	if err := c.lifecycle.ChooseMode(project.ModeScratch); err != nil {
		return err
	}
	model := project.New(name, project.ModeScratch, normalizeMetadata(meta))
	if err := c.manager.Paths(model).Ensure(); err != nil {
		return failure.Wrap(failure.ErrWriteFailure, "converter", "new project", "create project directories", err)
	}
	c.install(model, nil, "")
	if err := c.lifecycle.Advance(session.StateDataLoaded); err != nil {
		return err
	}
	c.logger.Info("scratch project created", logging.String(logging.FieldProject, name))
	return c.lifecycle.Edit()
}

// Reset discards the active project.
func (c *Converter) Reset() {
	c.teardown()
	c.logger.Info("project reset")
}

func (c *Converter) teardown() {
	c.StopAutosave()
	c.mu.Lock()
	if c.model != nil {
		c.model.Reset()
	}
	c.model = nil
	c.source = nil
	c.excluded = map[string]bool{}
	c.saveTarget = ""
	c.mu.Unlock()
	c.lifecycle.Reset()
}

func (c *Converter) install(model *project.Model, source *elanSource, saveTarget string) {
	c.mu.Lock()
	c.model = model
	c.source = source
	c.excluded = map[string]bool{}
	c.saveTarget = saveTarget
	c.mu.Unlock()
}

func (c *Converter) activeModel() (*project.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return nil, ErrNoProject
	}
	return c.model, nil
}

// StartAutosave begins periodic saves to the project's autosave file.
func (c *Converter) StartAutosave(ctx context.Context) error {
	if _, err := c.activeModel(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.autosaver != nil && c.autosaver.Running() {
		c.mu.Unlock()
		return nil
	}
	c.autosaver = session.NewAutosaver(c.manager, c.Model, c.cfg.AutosaveInterval(), c.logger)
	saver := c.autosaver
	c.mu.Unlock()
	return saver.Start(ctx)
}

// StopAutosave halts autosave and waits for an in-flight save.
func (c *Converter) StopAutosave() {
	c.mu.Lock()
	saver := c.autosaver
	c.autosaver = nil
	c.mu.Unlock()
	if saver != nil {
		saver.Stop()
	}
}

// AutosaveRunning reports whether autosave is active.
func (c *Converter) AutosaveRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autosaver != nil && c.autosaver.Running()
}

// Save writes the project to its current save target.
func (c *Converter) Save(ctx context.Context) (session.SaveResult, error) {
	return c.SaveAs(ctx, c.SaveTarget())
}

// SaveAs writes the project to path and makes it the save target.
func (c *Converter) SaveAs(ctx context.Context, path string) (session.SaveResult, error) {
	model, err := c.activeModel()
	if err != nil {
		return session.SaveResult{}, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return session.SaveResult{}, failure.Wrap(failure.ErrNoSaveTarget, "converter", "save", "no save file chosen", nil)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	ctx, logger := c.projectScope(ctx, model)
	result, err := c.manager.Save(ctx, model, path)
	if err != nil {
		logging.ErrorWithContext(logger, "save failed", "save_failed",
			logging.String("target", path),
			logging.Error(err),
		)
		return result, err
	}
	c.mu.Lock()
	c.saveTarget = path
	c.mu.Unlock()
	c.remember(ctx, model, path, result.Words)
	return result, nil
}

// Load replaces the active project with the one saved at path.
func (c *Converter) Load(ctx context.Context, path string) error {
	model, err := c.manager.Load(ctx, path)
	if err != nil {
		return err
	}
	c.teardown()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	// Manual saves never write into the autosave file.
	target := path
	if paths := c.manager.Paths(model); filepath.Base(path) == filepath.Base(paths.Autosave()) {
		target = paths.SaveFile()
	}
	c.install(model, nil, target)
	if track := c.relinkTrack(ctx, model); track != nil {
		model.SetTrack(track)
	}
	c.lifecycle.Opened(model.Mode())
	c.remember(ctx, model, path, model.Len())
	return c.lifecycle.Edit()
}

// OpenProject opens a project by name from the projects directory, preferring
// its manual save over the autosave.
func (c *Converter) OpenProject(ctx context.Context, name string) error {
	paths := session.NewPaths(c.cfg.Paths.ProjectsDir, name)
	for _, candidate := range []string{paths.SaveFile(), paths.Autosave()} {
		if _, err := os.Stat(candidate); err == nil {
			return c.Load(ctx, candidate)
		}
	}
	return failure.Wrap(failure.ErrValidation, "converter", "open project", fmt.Sprintf("no save found for project %q", name), nil)
}

// relinkTrack reopens the source recording of a saved ELAN project so new
// rows can be sliced; failures only leave the track unresolved.
func (c *Converter) relinkTrack(ctx context.Context, model *project.Model) *audio.Track {
	if model.Mode() != project.ModeELAN || model.SourceFile() == "" {
		return nil
	}
	src, err := openELAN(model.SourceFile())
	if err != nil {
		c.logger.Debug("source transcript not reopened", logging.Error(err))
		return nil
	}
	track, err := audio.Locate(ctx, src.doc.MediaCandidates(), nil, c.logger)
	if err != nil {
		return nil
	}
	return track
}

// projectScope tags ctx with the project name unless a caller already did,
// and returns a logger carrying it.
func (c *Converter) projectScope(ctx context.Context, model *project.Model) (context.Context, *slog.Logger) {
	if _, ok := logging.ProjectFromContext(ctx); !ok {
		ctx = logging.WithProject(ctx, model.Name())
	}
	return ctx, logging.WithContext(ctx, c.logger)
}

func (c *Converter) remember(ctx context.Context, model *project.Model, path string, words int) {
	if c.registry == nil {
		return
	}
	if filepath.Base(path) == filepath.Base(c.manager.Paths(model).Autosave()) {
		return
	}
	entry := registry.Entry{SavePath: path, Name: model.Name(), Mode: model.Mode().String(), Words: words}
	if err := c.registry.Touch(ctx, entry); err != nil {
		logging.WarnWithContext(c.logger, "recent projects not updated", "registry_touch_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "project missing from recent list"),
		)
	}
}

func normalizeMetadata(meta project.Metadata) project.Metadata {
	meta.Author = strings.TrimSpace(meta.Author)
	meta.TranscriptionLanguage = language.Label(meta.TranscriptionLanguage)
	meta.TranslationLanguage = language.Label(meta.TranslationLanguage)
	return meta
}
