package audio

import (
	"context"
	"errors"
	"sync"

	"hermes/internal/failure"
)

// Extractor turns sample windows into clip files.
type Extractor struct {
	Scratch *Scratch
	Slicer  Slicer
}

// Sample is one row's window of a Track, or an already existing clip file.
type Sample struct {
	track     *Track
	start     int64
	end       int64
	extractor *Extractor

	mu   sync.Mutex
	path string
}

// NewSample returns a lazily extracted window of track.
func NewSample(track *Track, start, end int64, extractor *Extractor) *Sample {
	return &Sample{track: track, start: start, end: end, extractor: extractor}
}

// NewAttachedSample returns a Sample bound to an existing clip.
func NewAttachedSample(path string) *Sample {
	s := &Sample{}
	s.AttachExisting(path)
	return s
}

// Start returns the window start in milliseconds.
func (s *Sample) Start() int64 { return s.start }

// End returns the window end in milliseconds.
func (s *Sample) End() int64 { return s.end }

// AttachExisting binds path as the clip without slicing. Later ResolvePath
// calls return path.
func (s *Sample) AttachExisting(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

// Path returns the resolved clip path, or "" when nothing has been extracted
// or attached yet.
func (s *Sample) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// ResolvePath returns the clip path, extracting it on first use. Concurrent
// callers block until the single extraction finishes.
func (s *Sample) ResolvePath(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		return s.path, nil
	}
	if s.track == nil {
		return "", failure.Wrap(failure.ErrAudioUnavailable, "audio", "resolve sample", "source track not loaded", nil)
	}
	if s.extractor == nil || s.extractor.Scratch == nil || s.extractor.Slicer == nil {
		return "", failure.Wrap(failure.ErrAudioUnavailable, "audio", "resolve sample", "no clip extractor configured", nil)
	}
	if s.end < s.start {
		return "", failure.Wrap(failure.ErrValidation, "audio", "resolve sample", "window ends before it starts", nil)
	}

	dst := s.extractor.Scratch.ClipPath(s.track, s.start, s.end)
	if err := s.extractor.Slicer.Slice(ctx, s.track, s.start, s.end, dst); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", failure.Wrap(failure.ErrAudioUnavailable, "audio", "resolve sample", "clip extraction failed", err)
	}
	s.path = dst
	return dst, nil
}
