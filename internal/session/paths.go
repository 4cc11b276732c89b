package session

import (
	"path/filepath"

	"hermes/internal/fileutil"
	"hermes/internal/textutil"
)

const (
	// SaveExtension is the suffix of project save files.
	SaveExtension     = ".hermes"
	// TemplateExtension is the suffix of template files.
	TemplateExtension = ".htemp"
)

const (
	autosaveName = "autosave" + SaveExtension
	lockName     = ".save.lock"
	defaultName  = "untitled"
)

// Paths derives every on-disk location of a project from its root and name.
// It is a value; build a new one whenever the name changes.
type Paths struct {
	Root string
	Name string
}

// NewPaths returns the layout for project name under root.
func NewPaths(root, name string) Paths {
	return Paths{Root: root, Name: name}
}

func (p Paths) dirName() string {
	if name := textutil.SanitizeFileName(p.Name); name != "" {
		return name
	}
	return defaultName
}

// ProjectDir is {root}/{name}.
func (p Paths) ProjectDir() string { return filepath.Join(p.Root, p.dirName()) }

// AudioDir holds clips owned by the project.
func (p Paths) AudioDir() string { return filepath.Join(p.ProjectDir(), "assets", "audio") }

// ImagesDir holds images owned by the project.
func (p Paths) ImagesDir() string { return filepath.Join(p.ProjectDir(), "assets", "images") }

// ExportDir is the default export destination.
func (p Paths) ExportDir() string { return filepath.Join(p.ProjectDir(), "export") }

// TemplatesDir holds .htemp files.
func (p Paths) TemplatesDir() string { return filepath.Join(p.ProjectDir(), "templates") }

// SavesDir holds .hermes files and the save lock.
func (p Paths) SavesDir() string { return filepath.Join(p.ProjectDir(), "saves") }

// SaveFile is the default manual save target.
func (p Paths) SaveFile() string { return filepath.Join(p.SavesDir(), p.dirName()+SaveExtension) }

// Autosave is the autosave target.
func (p Paths) Autosave() string { return filepath.Join(p.SavesDir(), autosaveName) }

// LockFile serializes saves across processes.
func (p Paths) LockFile() string { return filepath.Join(p.SavesDir(), lockName) }

// Template returns the file for a named template.
func (p Paths) Template(name string) string {
	stem := textutil.SanitizeFileName(name)
	if stem == "" {
		stem = defaultName
	}
	return filepath.Join(p.TemplatesDir(), stem+TemplateExtension)
}

// Ensure creates every directory of the layout.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.AudioDir(), p.ImagesDir(), p.ExportDir(), p.TemplatesDir(), p.SavesDir()} {
		if _, err := fileutil.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}
