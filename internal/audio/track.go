package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Track is a source recording. It is read-only once opened and may be shared
// by any number of Samples.
type Track struct {
	Path string
	// PCM is nil when the file is not an uncompressed WAV; those tracks need
	// an external decoder to slice.
	PCM *Format

	dataOffset int64
	dataSize   int64
}

// OpenTrack inspects path and returns a Track for it.
func OpenTrack(path string) (*Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve track path: %w", err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat track: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open track: %s is a directory", abs)
	}

	track := &Track{Path: abs}
	layout, err := readWAVLayout(file, info.Size())
	if err == nil {
		format := layout.format
		track.PCM = &format
		track.dataOffset = layout.dataOffset
		track.dataSize = layout.dataSize
	}
	return track, nil
}

// Duration reports the PCM length, or zero when the track is not PCM.
func (t *Track) Duration() time.Duration {
	if t == nil || t.PCM == nil || t.PCM.BlockAlign == 0 || t.PCM.SampleRate == 0 {
		return 0
	}
	frames := t.dataSize / int64(t.PCM.BlockAlign)
	return time.Duration(frames) * time.Second / time.Duration(t.PCM.SampleRate)
}
