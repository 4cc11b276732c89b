package export

import (
	"fmt"
	"path/filepath"

	"hermes/internal/fileutil"
	"hermes/internal/project"
)

const (
	opieWords        = "words"
	opieTranslations = "translations"
	soundsDir        = "sounds"
	imagesDir        = "images"
)

type opieWriter struct {
	root string
}

func (w *opieWriter) begin(dest string) error {
	w.root = dest
	return ensureDirs(dest, opieWords, opieTranslations, soundsDir, imagesDir)
}

func (w *opieWriter) row(row project.Transcription, assets rowAssets) ([]string, error) {
	base := fmt.Sprintf("word%d", row.Index)
	var files []string

	wordPath := filepath.Join(w.root, opieWords, base+".txt")
	if err := writeText(wordPath, row.Transcription); err != nil {
		return nil, err
	}
	files = append(files, wordPath)

	translationPath := filepath.Join(w.root, opieTranslations, base+".txt")
	if err := writeText(translationPath, row.TranslationText()); err != nil {
		return nil, err
	}
	files = append(files, translationPath)

	if assets.audio != "" {
		path := filepath.Join(w.root, soundsDir, base+".wav")
		if err := fileutil.CopyFileVerified(assets.audio, path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	if assets.image != "" {
		path := filepath.Join(w.root, imagesDir, base+filepath.Ext(assets.image))
		if err := fileutil.CopyFileVerified(assets.image, path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func (w *opieWriter) finish() ([]string, error) { return nil, nil }

func (w *opieWriter) close() error { return nil }
