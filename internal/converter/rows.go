package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hermes/internal/audio"
	"hermes/internal/failure"
	"hermes/internal/fileutil"
	"hermes/internal/project"
	"hermes/internal/textutil"
)

// Row is a display view of one project row.
type Row struct {
	Index         int
	ID            string
	Transcription string
	Translation   *string
	Image         string
	Audio         string
	HasAudio      bool
	Included      bool
}

// Rows returns every row in display order.
func (c *Converter) Rows() ([]Row, error) {
	model, err := c.activeModel()
	if err != nil {
		return nil, err
	}
	snap := model.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Row, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		out = append(out, c.view(row))
	}
	return out, nil
}

// Filter returns the rows whose transcription or translation contains text,
// ignoring case. An empty filter returns every row.
func (c *Converter) Filter(text string) ([]Row, error) {
	rows, err := c.Rows()
	if err != nil || strings.TrimSpace(text) == "" {
		return rows, err
	}
	var out []Row
	for _, row := range rows {
		translation := ""
		if row.Translation != nil {
			translation = *row.Translation
		}
		if textutil.ContainsFold(row.Transcription, text) || textutil.ContainsFold(translation, text) {
			out = append(out, row)
		}
	}
	return out, nil
}

// view requires c.mu.
func (c *Converter) view(row project.Transcription) Row {
	v := Row{
		Index:         row.Index,
		ID:            row.ID,
		Transcription: row.Transcription,
		Translation:   row.Translation,
		Image:         row.Image,
		HasAudio:      row.Sample != nil,
		Included:      !c.excluded[row.ID],
	}
	if row.Sample != nil {
		v.Audio = row.Sample.Path()
	}
	return v
}

// SetInclusion marks a row for (or excludes it from) export.
func (c *Converter) SetInclusion(index int, include bool) error {
	model, err := c.activeModel()
	if err != nil {
		return err
	}
	row, err := model.Row(index)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if include {
		delete(c.excluded, row.ID)
	} else {
		c.excluded[row.ID] = true
	}
	c.mu.Unlock()
	return nil
}

// SetAllIncluded includes or excludes every row.
func (c *Converter) SetAllIncluded(include bool) error {
	model, err := c.activeModel()
	if err != nil {
		return err
	}
	snap := model.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.excluded = map[string]bool{}
	if !include {
		for _, row := range snap.Rows {
			c.excluded[row.ID] = true
		}
	}
	return nil
}

func (c *Converter) selection(snap project.Snapshot) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	selected := make(map[string]bool, len(snap.Rows))
	for _, row := range snap.Rows {
		if !c.excluded[row.ID] {
			selected[row.ID] = true
		}
	}
	return selected
}

func (c *Converter) edit(index int, fn func(*project.Transcription)) error {
	model, err := c.activeModel()
	if err != nil {
		return err
	}
	if err := c.lifecycle.Edit(); err != nil {
		return err
	}
	return model.Update(index, fn)
}

// AddRow appends a row and returns its index.
func (c *Converter) AddRow(transcription string, translation *string) (int, error) {
	model, err := c.activeModel()
	if err != nil {
		return 0, err
	}
	if err := c.lifecycle.Edit(); err != nil {
		return 0, err
	}
	return model.Append(project.NewTranscription(transcription, translation)), nil
}

// EditRow replaces a row's text. A nil translation clears it.
func (c *Converter) EditRow(index int, transcription string, translation *string) error {
	return c.edit(index, func(row *project.Transcription) {
		row.Transcription = transcription
		row.Translation = translation
	})
}

// AttachImage sets a row's image to an existing file.
func (c *Converter) AttachImage(index int, path string) error {
	abs, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return failure.Wrap(failure.ErrValidation, "converter", "attach image", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return failure.Wrap(failure.ErrMediaNotFound, "converter", "attach image", fmt.Sprintf("%s is not a file", abs), err)
	}
	return c.edit(index, func(row *project.Transcription) { row.Image = abs })
}

// ClearImage removes a row's image.
func (c *Converter) ClearImage(index int) error {
	return c.edit(index, func(row *project.Transcription) { row.Image = "" })
}

// AttachAudio stores recorded WAV bytes as the row's clip under the project's
// assets and returns the clip path.
func (c *Converter) AttachAudio(index int, wav []byte) (string, error) {
	model, err := c.activeModel()
	if err != nil {
		return "", err
	}
	if len(wav) == 0 {
		return "", failure.Wrap(failure.ErrValidation, "converter", "attach audio", "recording is empty", nil)
	}
	row, err := model.Row(index)
	if err != nil {
		return "", err
	}
	path := filepath.Join(c.manager.Paths(model).AudioDir(), row.ID+".wav")
	if err := fileutil.WriteFileAtomic(path, wav, 0o644); err != nil {
		return "", failure.Wrap(failure.ErrWriteFailure, "converter", "attach audio", path, err)
	}
	if err := c.edit(index, func(row *project.Transcription) { row.Sample = audio.NewAttachedSample(path) }); err != nil {
		return "", err
	}
	return path, nil
}

// AttachAudioFile copies an existing recording into the project as the row's clip.
func (c *Converter) AttachAudioFile(index int, src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", failure.Wrap(failure.ErrMediaNotFound, "converter", "attach audio", src, err)
	}
	return c.AttachAudio(index, data)
}

// ClearAudio removes a row's clip.
func (c *Converter) ClearAudio(index int) error {
	return c.edit(index, func(row *project.Transcription) { row.Sample = nil })
}

// DeleteRow removes a row.
func (c *Converter) DeleteRow(index int) error {
	model, err := c.activeModel()
	if err != nil {
		return err
	}
	row, err := model.Row(index)
	if err != nil {
		return err
	}
	if err := c.lifecycle.Edit(); err != nil {
		return err
	}
	if err := model.Remove(index); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.excluded, row.ID)
	c.mu.Unlock()
	return nil
}

// ResolveAudio returns the clip file for a row, slicing it from the source
// recording on first use.
func (c *Converter) ResolveAudio(ctx context.Context, index int) (string, error) {
	model, err := c.activeModel()
	if err != nil {
		return "", err
	}
	row, err := model.Row(index)
	if err != nil {
		return "", err
	}
	if row.Sample == nil {
		return "", failure.Wrap(failure.ErrAudioUnavailable, "converter", "resolve audio", fmt.Sprintf("row %d has no audio", index), nil)
	}
	return row.Sample.ResolvePath(ctx)
}
