package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"hermes/internal/failure"
	"hermes/internal/fileutil"
	"hermes/internal/project"
)

const sidecarSuffix = ".project.toml"

// projectInfo restores the parts of a project that the save document does
// not carry. It lives next to the save so the document keeps exactly the
// interchange keys.
type projectInfo struct {
	Name           string `toml:"name"`
	Mode           string `toml:"mode"`
	SourceFile     string `toml:"source_file,omitempty"`
	ExportLocation string `toml:"export_location,omitempty"`
}

// SidecarPath returns the project file stored beside save.
func SidecarPath(save string) string {
	return strings.TrimSuffix(save, filepath.Ext(save)) + sidecarSuffix
}

func writeSidecar(save string, snap project.Snapshot) error {
	data, err := toml.Marshal(projectInfo{
		Name:           snap.Name,
		Mode:           snap.Mode.String(),
		SourceFile:     snap.SourceFile,
		ExportLocation: snap.ExportLocation,
	})
	if err != nil {
		return failure.Wrap(failure.ErrWriteFailure, "session", "save", "encode project file", err)
	}
	if err := fileutil.WriteFileAtomic(SidecarPath(save), data, 0o644); err != nil {
		return failure.Wrap(failure.ErrWriteFailure, "session", "save", "write project file", err)
	}
	return nil
}

// readSidecar returns the stored project info for save, or info derived from
// its location when no project file exists.
func readSidecar(save string) (projectInfo, error) {
	info := projectInfo{Name: nameFromSave(save), Mode: project.ModeScratch.String()}
	data, err := os.ReadFile(SidecarPath(save))
	if errors.Is(err, os.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, failure.Wrap(failure.ErrValidation, "session", "load", "read project file", err)
	}
	var stored projectInfo
	if err := toml.Unmarshal(data, &stored); err != nil {
		return info, failure.Wrap(failure.ErrValidation, "session", "load", "decode project file", err)
	}
	if stored.Name != "" {
		info.Name = stored.Name
	}
	if stored.Mode != "" {
		info.Mode = stored.Mode
	}
	info.SourceFile = stored.SourceFile
	info.ExportLocation = stored.ExportLocation
	return info, nil
}

// nameFromSave uses the project directory for autosaves, the file stem
// otherwise.
func nameFromSave(save string) string {
	dir := filepath.Dir(save)
	if filepath.Base(save) == autosaveName && filepath.Base(dir) == "saves" {
		if name := filepath.Base(filepath.Dir(dir)); name != "." && name != string(filepath.Separator) {
			return name
		}
	}
	return strings.TrimSuffix(filepath.Base(save), filepath.Ext(save))
}
