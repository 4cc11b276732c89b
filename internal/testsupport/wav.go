package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WAVFixture describes a synthetic PCM track.
type WAVFixture struct {
	SampleRate int
	Channels   int
	DurationMS int
}

// WAVBytes builds a 16-bit PCM WAV whose sample values count upward, so a
// slice taken from it can be checked against its expected offset.
func WAVBytes(fixture WAVFixture) []byte {
	if fixture.SampleRate <= 0 {
		fixture.SampleRate = 8000
	}
	if fixture.Channels <= 0 {
		fixture.Channels = 1
	}
	frames := fixture.SampleRate * fixture.DurationMS / 1000
	blockAlign := fixture.Channels * 2
	dataSize := frames * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(fixture.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(fixture.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(fixture.SampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < fixture.Channels; ch++ {
			_ = binary.Write(&buf, binary.LittleEndian, int16(frame%32768))
		}
	}
	return buf.Bytes()
}

// WriteWAV writes a synthetic track to path and returns path.
func WriteWAV(t testing.TB, path string, fixture WAVFixture) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, WAVBytes(fixture), 0o644); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	return path
}
