package codec

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"

	"github.com/m8kit/kitcreator/internal/audio"
)

func toneSegment(frames, numChannels, sampleRate int) *audio.Segment {
	data := make([]int, frames*numChannels)
	for i := range data {
		if i%2 == 0 {
			data[i] = 8000
		} else {
			data[i] = -8000
		}
	}
	return &audio.Segment{
		Data:     data,
		Format:   &goaudio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		BitDepth: 16,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := toneSegment(4410, 2, 44100)

	c := WAV{}
	if err := c.Encode(path, in); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := c.Decode(path)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if out.Format.SampleRate != 44100 {
		t.Errorf("expected 44100 Hz, got %d", out.Format.SampleRate)
	}
	if out.Format.NumChannels != 2 {
		t.Errorf("expected 2 channels, got %d", out.Format.NumChannels)
	}
	if out.BitDepth != 16 {
		t.Errorf("expected 16-bit, got %d", out.BitDepth)
	}
	if out.NumFrames() != in.NumFrames() {
		t.Fatalf("expected %d frames, got %d", in.NumFrames(), out.NumFrames())
	}
	for i := range in.Data {
		if in.Data[i] != out.Data[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, in.Data[i], out.Data[i])
		}
	}
}

func TestDecodeMissingFile(t *testing.T) {
	if _, err := (WAV{}).Decode(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecodeGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("this is not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := (WAV{}).Decode(path); err == nil {
		t.Error("expected error for non-WAV content")
	}
}

func TestEncodeNilSegment(t *testing.T) {
	if err := (WAV{}).Encode(filepath.Join(t.TempDir(), "out.wav"), nil); err == nil {
		t.Error("expected error for nil segment")
	}
}
