package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hermes/internal/fileutil"
	"hermes/internal/project"
	"hermes/internal/textutil"
)

// DictionaryFile is the CSV written by the dictionary layout.
const DictionaryFile = "dictionary.csv"

var dictionaryHeader = []string{"Transcription", "Translation", "Audio", "Image"}

// dictionaryWriter truncates the CSV and writes its header in begin, then
// appends one line per row.
type dictionaryWriter struct {
	root string
	file *os.File
	csv  *csv.Writer
}

func (w *dictionaryWriter) begin(dest string) error {
	w.root = dest
	if err := ensureDirs(dest, soundsDir, imagesDir); err != nil {
		return err
	}
	file, err := os.Create(filepath.Join(dest, DictionaryFile))
	if err != nil {
		return err
	}
	w.file = file
	w.csv = csv.NewWriter(file)
	return w.flushLine(dictionaryHeader)
}

func (w *dictionaryWriter) row(row project.Transcription, assets rowAssets) ([]string, error) {
	stem := textutil.SanitizeFileName(row.Transcription)
	if stem == "" {
		stem = "word"
	}
	base := fmt.Sprintf("%s-%d", stem, row.Index)

	var files []string
	audioCell, imageCell := "", ""
	if assets.audio != "" {
		rel := filepath.ToSlash(filepath.Join(soundsDir, base+".wav"))
		path := filepath.Join(w.root, filepath.FromSlash(rel))
		if err := fileutil.CopyFileVerified(assets.audio, path); err != nil {
			return nil, err
		}
		files = append(files, path)
		audioCell = rel
	}
	if assets.image != "" {
		rel := filepath.ToSlash(filepath.Join(imagesDir, base+filepath.Ext(assets.image)))
		path := filepath.Join(w.root, filepath.FromSlash(rel))
		if err := fileutil.CopyFileVerified(assets.image, path); err != nil {
			return nil, err
		}
		files = append(files, path)
		imageCell = rel
	}
	if err := w.flushLine([]string{row.Transcription, row.TranslationText(), audioCell, imageCell}); err != nil {
		return nil, err
	}
	return files, nil
}

func (w *dictionaryWriter) flushLine(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

func (w *dictionaryWriter) finish() ([]string, error) {
	path := w.file.Name()
	if err := w.file.Sync(); err != nil {
		return nil, err
	}
	if err := w.close(); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (w *dictionaryWriter) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
