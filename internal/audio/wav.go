package audio

import (
	"context"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	copyChunkFrames     = 4096
)

// Format describes the PCM layout of a WAV track.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	BlockAlign    int
}

// frameAt converts a millisecond offset to a frame index, rounding down.
func (f Format) frameAt(ms int64) int64 {
	return ms * int64(f.SampleRate) / 1000
}

type wavLayout struct {
	format     Format
	dataOffset int64
	dataSize   int64
}

// readWAVLayout leaves r at the first PCM frame.
func readWAVLayout(r io.ReadSeeker, fileSize int64) (wavLayout, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return wavLayout{}, fmt.Errorf("read wav header: %w", err)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return wavLayout{}, fmt.Errorf("unsupported wav encoding 0x%04x", dec.WavAudioFormat)
	}
	if dec.SampleRate == 0 || dec.NumChans == 0 || dec.BitDepth < 8 {
		return wavLayout{}, errors.New("wav format has zero sample rate, channels or bit depth")
	}
	if err := dec.FwdToPCM(); err != nil {
		return wavLayout{}, fmt.Errorf("locate wav data: %w", err)
	}
	offset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return wavLayout{}, fmt.Errorf("locate wav data: %w", err)
	}

	format := Format{
		SampleRate:    int(dec.SampleRate),
		Channels:      int(dec.NumChans),
		BitsPerSample: int(dec.BitDepth),
	}
	format.BlockAlign = format.Channels * ((format.BitsPerSample + 7) / 8)

	size := dec.PCMLen()
	// Streams written by recorders that never finalised the header carry 0
	// or 0xFFFFFFFF here.
	if remaining := fileSize - offset; fileSize > 0 && (size <= 0 || size > remaining) {
		size = remaining
	}
	return wavLayout{format: format, dataOffset: offset, dataSize: size}, nil
}

// copyFrames re-encodes length bytes of PCM starting startByte into the data
// chunk as a standalone WAV on out.
func copyFrames(ctx context.Context, src io.ReadSeeker, track *Track, startByte, length int64, out io.WriteSeeker) error {
	format := *track.PCM
	dec := wav.NewDecoder(src)
	if err := dec.FwdToPCM(); err != nil {
		return fmt.Errorf("locate wav data: %w", err)
	}
	if _, err := src.Seek(track.dataOffset+startByte, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	enc := wav.NewEncoder(out, format.SampleRate, format.BitsPerSample, format.Channels, wavFormatPCM)
	data := make([]int, copyChunkFrames*format.Channels)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           data[:0],
		SourceBitDepth: format.BitsPerSample,
	}
	// The first write emits the header even for an empty window.
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bytesPerSample := int64((format.BitsPerSample + 7) / 8)
	remaining := int(length / bytesPerSample)
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf.Data = data[:min(remaining, len(data))]
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return fmt.Errorf("read frames: %w", err)
		}
		if n == 0 {
			break
		}
		buf.Data = buf.Data[:n]
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("write frames: %w", err)
		}
		remaining -= n
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish clip: %w", err)
	}
	return nil
}
