// Package project holds the in-memory state of one conversion project: the
// ordered rows, their optional audio and images, and project metadata.
//
// Model is the single mutable owner. Everything that serializes or exports
// works from a Snapshot so that long running writers never hold the lock.
package project

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hermes/internal/audio"
	"hermes/internal/failure"
)

// Mode records how the project was started.
type Mode int

const (
	// ModeELAN projects are imported from an ELAN transcript and its track.
	ModeELAN Mode = iota
	// ModeScratch projects are built by hand, row by row.
	ModeScratch
)

func (m Mode) String() string {
	switch m {
	case ModeELAN:
		return "elan"
	case ModeScratch:
		return "scratch"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Metadata is the descriptive header written into saves and manifests.
type Metadata struct {
	Author                string
	TranscriptionLanguage string
	TranslationLanguage   string
	Created               time.Time
}

// Transcription is one row. ID is assigned once and survives saves.
type Transcription struct {
	Index         int
	ID            string
	Transcription string
	Translation   *string
	Image         string
	Sample        *audio.Sample
}

// TranslationText returns the translation or "".
func (t Transcription) TranslationText() string {
	if t.Translation == nil {
		return ""
	}
	return *t.Translation
}

// HasAudio reports whether the row owns a Sample.
func (t Transcription) HasAudio() bool { return t.Sample != nil }

// NewTranscription builds a row with a fresh ID.
func NewTranscription(text string, translation *string) Transcription {
	return Transcription{ID: uuid.NewString(), Transcription: text, Translation: copyString(translation)}
}

// Text returns a pointer to a copy of s, for optional translation fields.
func Text(s string) *string { return &s }

// Snapshot is a structural copy of a Model. Rows are copies; Samples and the
// Track are shared because they are safe for concurrent use.
type Snapshot struct {
	Name           string
	Mode           Mode
	SourceFile     string
	ExportLocation string
	Metadata       Metadata
	Track          *audio.Track
	Rows           []Transcription
}

// Model is the mutable project.
type Model struct {
	mu             sync.RWMutex
	name           string
	mode           Mode
	sourceFile     string
	exportLocation string
	metadata       Metadata
	track          *audio.Track
	rows           []Transcription
}

// New returns an empty project.
func New(name string, mode Mode, metadata Metadata) *Model {
	if metadata.Created.IsZero() {
		metadata.Created = time.Now()
	}
	return &Model{name: name, mode: mode, metadata: metadata}
}

// Name returns the project name.
func (m *Model) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

// SetName renames the project.
func (m *Model) SetName(name string) {
	m.mu.Lock()
	m.name = name
	m.mu.Unlock()
}

// Mode returns how the project was started.
func (m *Model) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// SourceFile returns the imported ELAN file, if any.
func (m *Model) SourceFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sourceFile
}

// SetSourceFile records the imported ELAN file.
func (m *Model) SetSourceFile(path string) {
	m.mu.Lock()
	m.sourceFile = path
	m.mu.Unlock()
}

// Track returns the cached source track, or nil when it was never resolved.
func (m *Model) Track() *audio.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.track
}

// SetTrack caches the resolved source track.
func (m *Model) SetTrack(track *audio.Track) {
	m.mu.Lock()
	m.track = track
	m.mu.Unlock()
}

// ExportLocation returns the chosen export destination.
func (m *Model) ExportLocation() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exportLocation
}

// SetExportLocation records the export destination.
func (m *Model) SetExportLocation(path string) {
	m.mu.Lock()
	m.exportLocation = path
	m.mu.Unlock()
}

// Metadata returns the project header.
func (m *Model) Metadata() Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata
}

// SetMetadata replaces the project header.
func (m *Model) SetMetadata(metadata Metadata) {
	m.mu.Lock()
	m.metadata = metadata
	m.mu.Unlock()
}

// Len returns the number of rows.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// Append adds rows at the end, assigning IDs to rows that lack one, and
// returns the index of the first appended row.
func (m *Model) Append(rows ...Transcription) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	first := len(m.rows)
	for _, row := range rows {
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.Translation = copyString(row.Translation)
		row.Index = len(m.rows)
		m.rows = append(m.rows, row)
	}
	return first
}

// Row returns a copy of the row at index.
func (m *Model) Row(index int) (Transcription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkIndex(index); err != nil {
		return Transcription{}, err
	}
	return copyRow(m.rows[index]), nil
}

// IndexOf returns the position of the row with id, or -1.
func (m *Model) IndexOf(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, row := range m.rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

// Update applies fn to the row at index under the write lock. fn must not
// change the row's ID or Index; both are restored afterwards.
func (m *Model) Update(index int, fn func(*Transcription)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkIndex(index); err != nil {
		return err
	}
	row := &m.rows[index]
	id := row.ID
	fn(row)
	row.ID = id
	row.Index = index
	row.Translation = copyString(row.Translation)
	return nil
}

// Remove deletes the row at index and renumbers the rest.
func (m *Model) Remove(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkIndex(index); err != nil {
		return err
	}
	m.rows = append(m.rows[:index], m.rows[index+1:]...)
	for i := index; i < len(m.rows); i++ {
		m.rows[i].Index = i
	}
	return nil
}

// Reset drops every row and the cached track. Name, mode and metadata stay.
func (m *Model) Reset() {
	m.mu.Lock()
	m.rows = nil
	m.track = nil
	m.sourceFile = ""
	m.mu.Unlock()
}

// Snapshot copies the model for serialization.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]Transcription, len(m.rows))
	for i, row := range m.rows {
		rows[i] = copyRow(row)
	}
	return Snapshot{
		Name:           m.name,
		Mode:           m.mode,
		SourceFile:     m.sourceFile,
		ExportLocation: m.exportLocation,
		Metadata:       m.metadata,
		Track:          m.track,
		Rows:           rows,
	}
}

func (m *Model) checkIndex(index int) error {
	if index < 0 || index >= len(m.rows) {
		return failure.Wrap(failure.ErrValidation, "project", "row", fmt.Sprintf("row %d out of range (0..%d)", index, len(m.rows)-1), nil)
	}
	return nil
}

func copyRow(row Transcription) Transcription {
	row.Translation = copyString(row.Translation)
	return row
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
