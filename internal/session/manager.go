package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"hermes/internal/audio"
	"hermes/internal/failure"
	"hermes/internal/fileutil"
	"hermes/internal/logging"
	"hermes/internal/manifest"
	"hermes/internal/project"
)

const lockRetryDelay = 50 * time.Millisecond

// SaveResult reports what a save wrote.
type SaveResult struct {
	Target string
	Words  int
	// Warnings lists rows saved without audio because their clip could not
	// be produced.
	Warnings []string
}

// Manager saves and loads projects stored under Root.
type Manager struct {
	Root   string
	logger *slog.Logger

	mu sync.Mutex
}

// NewManager returns a manager for projects under root.
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{Root: root, logger: logging.NewComponentLogger(logger, "session")}
}

// Paths returns the current layout for model.
func (m *Manager) Paths(model *project.Model) Paths {
	return NewPaths(m.Root, model.Name())
}

// Save writes model to target. Clips and images are first copied into the
// project's assets directories so the save never points at scratch files.
func (m *Manager) Save(ctx context.Context, model *project.Model, target string) (SaveResult, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return SaveResult{}, failure.Wrap(failure.ErrNoSaveTarget, "session", "save", "choose a save file first", nil)
	}
	if model == nil {
		return SaveResult{}, failure.Wrap(failure.ErrValidation, "session", "save", "no project loaded", nil)
	}
	snap := model.Snapshot()
	paths := NewPaths(m.Root, snap.Name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := fileutil.EnsureDir(paths.SavesDir()); err != nil {
		return SaveResult{}, failure.Wrap(failure.ErrWriteFailure, "session", "save", "create saves directory", err)
	}
	lock := flock.New(paths.LockFile())
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return SaveResult{}, failure.Wrap(failure.ErrWriteFailure, "session", "save", "acquire save lock", err)
	}
	if !locked {
		return SaveResult{}, failure.Wrap(failure.ErrWriteFailure, "session", "save", "save lock busy", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release save lock", logging.Error(err))
		}
	}()

	doc, warnings, err := m.buildDocument(ctx, snap, paths, filepath.Dir(target))
	if err != nil {
		return SaveResult{}, err
	}
	if err := manifest.Write(target, doc); err != nil {
		return SaveResult{}, err
	}
	if err := writeSidecar(target, snap); err != nil {
		return SaveResult{}, err
	}

	m.logger.Info("project saved",
		logging.String(logging.FieldProject, snap.Name),
		logging.String("target", target),
		logging.Int("words", len(doc.Words)),
		logging.String(logging.FieldEventType, "session_saved"),
	)
	return SaveResult{Target: target, Words: len(doc.Words), Warnings: warnings}, nil
}

func (m *Manager) buildDocument(ctx context.Context, snap project.Snapshot, paths Paths, saveDir string) (manifest.Document, []string, error) {
	doc := manifest.New(snap.Metadata)

	var warnings []string
	for _, row := range snap.Rows {
		if err := ctx.Err(); err != nil {
			return manifest.Document{}, nil, err
		}
		audioRef, imageRef := "", ""
		if row.Sample != nil {
			clip, err := row.Sample.ResolvePath(ctx)
			switch {
			case err == nil:
				owned, copyErr := adoptAsset(clip, filepath.Join(paths.AudioDir(), row.ID+".wav"))
				if copyErr != nil {
					return manifest.Document{}, nil, failure.Wrap(failure.ErrWriteFailure, "session", "save", fmt.Sprintf("copy audio for row %d", row.Index), copyErr)
				}
				audioRef = relativeTo(saveDir, owned)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return manifest.Document{}, nil, err
			default:
				warnings = append(warnings, fmt.Sprintf("row %d: %v", row.Index, err))
				logging.WarnWithContext(m.logger, "row saved without audio", "session_audio_skipped",
					logging.Int(logging.FieldRow, row.Index),
					logging.Error(err),
					logging.String(logging.FieldImpact, "audio missing from save"),
				)
			}
		}
		if image := strings.TrimSpace(row.Image); image != "" {
			owned, err := adoptAsset(image, filepath.Join(paths.ImagesDir(), row.ID+filepath.Ext(image)))
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return manifest.Document{}, nil, failure.Wrap(failure.ErrWriteFailure, "session", "save", fmt.Sprintf("copy image for row %d", row.Index), err)
				}
				// Keep the reference so a later load can report it.
				owned = image
				warnings = append(warnings, fmt.Sprintf("row %d: image %s is missing", row.Index, image))
			}
			imageRef = relativeTo(saveDir, owned)
		}
		doc.Words = append(doc.Words, manifest.WordFor(row, audioRef, imageRef))
	}
	return doc, warnings, nil
}

// adoptAsset copies src to dst unless dst already holds the same bytes, and
// returns dst.
func adoptAsset(src, dst string) (string, error) {
	if fileutil.SamePath(src, dst) || fileutil.SameContent(src, dst) {
		return dst, nil
	}
	if _, err := os.Stat(src); err != nil {
		return "", err
	}
	if _, err := fileutil.EnsureDir(filepath.Dir(dst)); err != nil {
		return "", err
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Load reads a save file into a new model. The caller replaces its current
// model with the result.
func (m *Manager) Load(ctx context.Context, path string) (*project.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := manifest.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.Wrap(failure.ErrValidation, "session", "load", fmt.Sprintf("save file %s not found", path), err)
		}
		return nil, err
	}
	saveDir := filepath.Dir(path)

	info, err := readSidecar(path)
	if err != nil {
		return nil, err
	}
	name := info.Name
	mode := project.ModeScratch
	if info.Mode == project.ModeELAN.String() {
		mode = project.ModeELAN
	}

	model := project.New(name, mode, doc.Metadata())
	model.SetSourceFile(info.SourceFile)
	model.SetExportLocation(info.ExportLocation)

	rows := make([]project.Transcription, 0, len(doc.Words))
	for _, word := range doc.Words {
		row := word.Row()
		if row.Image != "" {
			row.Image = resolveFrom(saveDir, row.Image)
		}
		if clip := word.AudioPath(); clip != "" {
			row.Sample = audio.NewAttachedSample(resolveFrom(saveDir, clip))
		}
		rows = append(rows, row)
	}
	model.Append(rows...)

	m.logger.Info("project loaded",
		logging.String(logging.FieldProject, name),
		logging.String("path", path),
		logging.Int("words", len(rows)),
		logging.String(logging.FieldEventType, "session_loaded"),
	)
	return model, nil
}

func resolveFrom(base, ref string) string {
	ref = filepath.FromSlash(ref)
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(base, ref)
}
