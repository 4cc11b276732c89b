// Package manifest defines the LMF-style JSON document shared by project
// saves, templates, and the manifest export mode.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"hermes/internal/failure"
	"hermes/internal/fileutil"
	"hermes/internal/project"
)

// Document is the top-level JSON object.
type Document struct {
	TranscriptionLanguage string `json:"transcription-language"`
	TranslationLanguage   string `json:"translation-language"`
	Author                string `json:"author"`
	Created               string `json:"created"`
	Words                 []Word `json:"words"`
}

// Word is one row. Translation always holds exactly one element, empty when
// the row has no translation. Audio and Image hold at most one.
type Word struct {
	ID            string   `json:"id"`
	Transcription string   `json:"transcription"`
	Translation   []string `json:"translation"`
	Audio         []string `json:"audio,omitempty"`
	Image         []string `json:"image,omitempty"`
}

// createdLayouts are tried in order when reading Created.
var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// New starts a document with the project's metadata and no words.
func New(meta project.Metadata) Document {
	created := ""
	if !meta.Created.IsZero() {
		created = meta.Created.UTC().Format(time.RFC3339)
	}
	return Document{
		TranscriptionLanguage: meta.TranscriptionLanguage,
		TranslationLanguage:   meta.TranslationLanguage,
		Author:                meta.Author,
		Created:               created,
		Words:                 []Word{},
	}
}

// WordFor converts a row. audioPath and imagePath are the paths to record;
// empty means the element is omitted.
func WordFor(row project.Transcription, audioPath, imagePath string) Word {
	word := Word{ID: row.ID, Transcription: row.Transcription, Translation: []string{row.TranslationText()}}
	if audioPath != "" {
		word.Audio = []string{audioPath}
	}
	if imagePath != "" {
		word.Image = []string{imagePath}
	}
	return word
}

// Metadata returns the document header as project metadata.
func (d Document) Metadata() project.Metadata {
	meta := project.Metadata{
		Author:                d.Author,
		TranscriptionLanguage: d.TranscriptionLanguage,
		TranslationLanguage:   d.TranslationLanguage,
	}
	raw := strings.TrimSpace(d.Created)
	for _, layout := range createdLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			meta.Created = ts
			break
		}
	}
	return meta
}

// Row converts a word back to a row. An empty translation reads back as
// absent.
func (w Word) Row() project.Transcription {
	row := project.Transcription{ID: w.ID, Transcription: w.Transcription, Image: w.ImagePath()}
	if text := first(w.Translation); text != "" {
		row.Translation = project.Text(text)
	}
	return row
}

// AudioPath returns the recorded clip path, or "".
func (w Word) AudioPath() string { return first(w.Audio) }

// ImagePath returns the recorded image path, or "".
func (w Word) ImagePath() string { return first(w.Image) }

// Marshal renders doc as indented JSON terminated by a newline.
func Marshal(doc Document) ([]byte, error) {
	if doc.Words == nil {
		doc.Words = []Word{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a document. Malformed input carries failure.ErrValidation.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, failure.Wrap(failure.ErrValidation, "manifest", "decode", "malformed document", err)
	}
	seen := make(map[string]struct{}, len(doc.Words))
	for i, word := range doc.Words {
		if len(word.Translation) > 1 || len(word.Audio) > 1 || len(word.Image) > 1 {
			return Document{}, failure.Wrap(failure.ErrValidation, "manifest", "decode", fmt.Sprintf("word %d has more than one translation, audio or image", i), nil)
		}
		if word.ID == "" {
			continue
		}
		if _, dup := seen[word.ID]; dup {
			return Document{}, failure.Wrap(failure.ErrValidation, "manifest", "decode", fmt.Sprintf("duplicate word id %s", word.ID), nil)
		}
		seen[word.ID] = struct{}{}
	}
	return doc, nil
}

// Read loads a document from path.
func Read(path string) (Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// Write replaces path with doc. Readers never observe a partial file.
func Write(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return failure.Wrap(failure.ErrWriteFailure, "manifest", "write", path, err)
	}
	return nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
