package export

import (
	"fmt"
	"path/filepath"

	"hermes/internal/fileutil"
	"hermes/internal/manifest"
	"hermes/internal/project"
)

// ManifestFile is the JSON document written by the manifest layout.
const ManifestFile = "manifest.json"

type manifestWriter struct {
	root string
	meta project.Metadata
	doc  manifest.Document
}

func (w *manifestWriter) begin(dest string) error {
	w.root = dest
	w.doc = manifest.New(w.meta)
	return ensureDirs(dest, soundsDir, imagesDir)
}

func (w *manifestWriter) row(row project.Transcription, assets rowAssets) ([]string, error) {
	base := fmt.Sprintf("word%d", row.Index)
	var files []string
	audioRel, imageRel := "", ""
	if assets.audio != "" {
		audioRel = filepath.ToSlash(filepath.Join(soundsDir, base+".wav"))
		path := filepath.Join(w.root, filepath.FromSlash(audioRel))
		if err := fileutil.CopyFileVerified(assets.audio, path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	if assets.image != "" {
		imageRel = filepath.ToSlash(filepath.Join(imagesDir, base+filepath.Ext(assets.image)))
		path := filepath.Join(w.root, filepath.FromSlash(imageRel))
		if err := fileutil.CopyFileVerified(assets.image, path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	w.doc.Words = append(w.doc.Words, manifest.WordFor(row, audioRel, imageRel))
	return files, nil
}

func (w *manifestWriter) finish() ([]string, error) {
	path := filepath.Join(w.root, ManifestFile)
	if err := manifest.Write(path, w.doc); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (w *manifestWriter) close() error { return nil }
