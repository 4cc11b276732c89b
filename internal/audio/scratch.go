package audio

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// ScratchPrefix starts the name of every per-process scratch directory.
const ScratchPrefix = "session-"

// Scratch is a per-process directory holding extracted clips. It is safe to
// delete once the process has exited; stale directories are reclaimed by the
// staging cleanup.
type Scratch struct {
	Dir string
}

// NewScratch creates a fresh scratch directory under base.
func NewScratch(base string) (*Scratch, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}
	pattern := fmt.Sprintf("%s%d-%s-", ScratchPrefix, os.Getpid(), time.Now().UTC().Format("20060102T150405"))
	dir, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{Dir: dir}, nil
}

// ClipPath names the clip for a track window. The name is stable for the
// same track and window so a re-import never collides with a different clip.
func (s *Scratch) ClipPath(track *Track, start, end int64) string {
	key := fmt.Sprintf("%s|%d|%d", track.Path, start, end)
	sum := blake3.Sum256([]byte(key))
	return filepath.Join(s.Dir, "clip-"+hex.EncodeToString(sum[:8])+".wav")
}

// Remove deletes the scratch directory and its clips.
func (s *Scratch) Remove() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	return os.RemoveAll(s.Dir)
}
