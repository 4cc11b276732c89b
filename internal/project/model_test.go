package project

import (
	"errors"
	"sync"
	"testing"

	"hermes/internal/failure"
)

func TestAppendAssignsIDsAndIndexes(t *testing.T) {
	m := New("demo", ModeScratch, Metadata{})
	first := m.Append(
		Transcription{Transcription: "one"},
		Transcription{ID: "fixed", Transcription: "two"},
	)
	if first != 0 || m.Len() != 2 {
		t.Fatalf("unexpected append result first=%d len=%d", first, m.Len())
	}
	row0, _ := m.Row(0)
	row1, _ := m.Row(1)
	if row0.ID == "" || row1.ID != "fixed" {
		t.Fatalf("unexpected ids %q %q", row0.ID, row1.ID)
	}
	if row1.Index != 1 {
		t.Fatalf("expected index 1, got %d", row1.Index)
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	m := New("demo", ModeScratch, Metadata{})
	m.Append(NewTranscription("hello", nil))
	before, _ := m.Row(0)

	if err := m.Update(0, func(row *Transcription) {
		row.ID = "changed"
		row.Transcription = "hi"
		row.Translation = Text("salut")
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	after, _ := m.Row(0)
	if after.ID != before.ID {
		t.Fatalf("id changed from %q to %q", before.ID, after.ID)
	}
	if after.Transcription != "hi" || after.TranslationText() != "salut" {
		t.Fatalf("update not applied: %+v", after)
	}
}

func TestRemoveRenumbers(t *testing.T) {
	m := New("demo", ModeScratch, Metadata{})
	m.Append(NewTranscription("a", nil), NewTranscription("b", nil), NewTranscription("c", nil))
	if err := m.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	snap := m.Snapshot()
	if len(snap.Rows) != 2 || snap.Rows[0].Transcription != "b" || snap.Rows[1].Index != 1 {
		t.Fatalf("unexpected rows %+v", snap.Rows)
	}
}

func TestOutOfRangeIsValidationError(t *testing.T) {
	m := New("demo", ModeScratch, Metadata{})
	if _, err := m.Row(0); !errors.Is(err, failure.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := m.Remove(3); !errors.Is(err, failure.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	m := New("demo", ModeELAN, Metadata{Author: "ana"})
	m.Append(NewTranscription("hello", Text("bonjour")))
	snap := m.Snapshot()

	*snap.Rows[0].Translation = "mutated"
	snap.Rows[0].Transcription = "mutated"

	row, _ := m.Row(0)
	if row.Transcription != "hello" || row.TranslationText() != "bonjour" {
		t.Fatalf("snapshot aliasing leaked into model: %+v", row)
	}
	if snap.Metadata.Created.IsZero() {
		t.Fatal("expected created timestamp to default")
	}
}

func TestConcurrentSnapshotsDuringEdits(t *testing.T) {
	m := New("demo", ModeScratch, Metadata{})
	m.Append(NewTranscription("seed", nil))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			m.Append(NewTranscription("row", nil))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := m.Snapshot()
			for j, row := range snap.Rows {
				if row.Index != j {
					t.Errorf("snapshot row %d has index %d", j, row.Index)
					return
				}
			}
		}
	}()
	wg.Wait()
	if m.Len() != 201 {
		t.Fatalf("expected 201 rows, got %d", m.Len())
	}
}

func TestModeString(t *testing.T) {
	if ModeELAN.String() != "elan" || ModeScratch.String() != "scratch" {
		t.Fatalf("unexpected mode names %s %s", ModeELAN, ModeScratch)
	}
}
