package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Slicer writes the [start, end) millisecond window of track to dst as WAV.
type Slicer interface {
	Slice(ctx context.Context, track *Track, start, end int64, dst string) error
}

// PCMSlicer re-encodes a window of frames from uncompressed WAV tracks.
type PCMSlicer struct{}

// Slice implements Slicer.
func (PCMSlicer) Slice(ctx context.Context, track *Track, start, end int64, dst string) error {
	if track == nil || track.PCM == nil {
		return fmt.Errorf("pcm slice: track is not pcm wav")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	format := *track.PCM
	align := int64(format.BlockAlign)
	startByte := clampInt64(format.frameAt(start)*align, 0, track.dataSize)
	endByte := clampInt64(format.frameAt(end)*align, startByte, track.dataSize)
	length := endByte - startByte

	src, err := os.Open(track.Path)
	if err != nil {
		return fmt.Errorf("pcm slice: open source: %w", err)
	}
	defer src.Close()

	partial := dst + ".part"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("pcm slice: create clip: %w", err)
	}
	if err := copyFrames(ctx, src, track, startByte, length, out); err != nil {
		out.Close()
		_ = os.Remove(partial)
		return fmt.Errorf("pcm slice: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("pcm slice: close clip: %w", err)
	}
	if err := os.Rename(partial, dst); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("pcm slice: finalize clip: %w", err)
	}
	return nil
}

// FFmpegSlicer cuts clips with an external ffmpeg binary.
type FFmpegSlicer struct {
	Binary string
}

// Slice implements Slicer.
func (s FFmpegSlicer) Slice(ctx context.Context, track *Track, start, end int64, dst string) error {
	if track == nil {
		return fmt.Errorf("ffmpeg slice: nil track")
	}
	binary := strings.TrimSpace(s.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args := []string{
		"-v", "error", "-hide_banner", "-y",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", track.Path,
		"-vn", "-acodec", "pcm_s16le",
		"-f", "wav", dst,
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("ffmpeg slice: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// AutoSlicer uses PCM for WAV tracks and falls back to FFmpeg otherwise.
type AutoSlicer struct {
	PCM    PCMSlicer
	FFmpeg FFmpegSlicer
}

// NewAutoSlicer returns an AutoSlicer that runs ffmpegBinary for non-PCM tracks.
func NewAutoSlicer(ffmpegBinary string) AutoSlicer {
	return AutoSlicer{FFmpeg: FFmpegSlicer{Binary: ffmpegBinary}}
}

// Slice implements Slicer.
func (s AutoSlicer) Slice(ctx context.Context, track *Track, start, end int64, dst string) error {
	if track != nil && track.PCM != nil {
		return s.PCM.Slice(ctx, track, start, end, dst)
	}
	return s.FFmpeg.Slice(ctx, track, start, end, dst)
}

func formatSeconds(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
