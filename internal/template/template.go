// Package template saves the text skeleton of a project so it can be reused
// as the starting rows of another one. Templates never carry audio or images.
package template

import (
	"fmt"
	"strings"

	"hermes/internal/failure"
	"hermes/internal/manifest"
	"hermes/internal/project"
)

// FieldSelection chooses which text columns a template keeps.
type FieldSelection int

const (
	Both FieldSelection = iota
	TranscriptionOnly
	TranslationOnly
)

func (f FieldSelection) String() string {
	switch f {
	case TranscriptionOnly:
		return "transcription"
	case TranslationOnly:
		return "translation"
	default:
		return "both"
	}
}

// ParseFieldSelection accepts "transcription", "translation" or "both".
func ParseFieldSelection(value string) (FieldSelection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "both":
		return Both, nil
	case "transcription", "transcriptions":
		return TranscriptionOnly, nil
	case "translation", "translations":
		return TranslationOnly, nil
	}
	return Both, failure.Wrap(failure.ErrValidation, "template", "parse fields", fmt.Sprintf("unknown field selection %q", value), nil)
}

// Build returns the template document for snap.
func Build(snap project.Snapshot, fields FieldSelection) manifest.Document {
	doc := manifest.New(snap.Metadata)
	for _, row := range snap.Rows {
		skeleton := project.Transcription{ID: row.ID, Transcription: row.Transcription, Translation: row.Translation}
		switch fields {
		case TranscriptionOnly:
			skeleton.Translation = nil
		case TranslationOnly:
			skeleton.Transcription = ""
		}
		doc.Words = append(doc.Words, manifest.WordFor(skeleton, "", ""))
	}
	return doc
}

// Create writes the template for snap to path and returns the number of rows.
func Create(snap project.Snapshot, fields FieldSelection, path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, failure.Wrap(failure.ErrNoSaveTarget, "template", "create", "template path is empty", nil)
	}
	doc := Build(snap, fields)
	if err := manifest.Write(path, doc); err != nil {
		return 0, err
	}
	return len(doc.Words), nil
}

// Load reads a template and returns its rows with fresh IDs, ready to append
// to a live model.
func Load(path string) ([]project.Transcription, error) {
	doc, err := manifest.Read(path)
	if err != nil {
		return nil, err
	}
	rows := make([]project.Transcription, 0, len(doc.Words))
	for _, word := range doc.Words {
		row := word.Row()
		rows = append(rows, project.NewTranscription(row.Transcription, row.Translation))
	}
	return rows, nil
}
