package cue

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"

	"github.com/m8kit/kitcreator/internal/audio"
	"github.com/m8kit/kitcreator/internal/codec"
	"github.com/m8kit/kitcreator/internal/kit"
)

func writeTestWAV(t *testing.T, frames int) string {
	t.Helper()
	data := make([]int, frames)
	for i := range data {
		data[i] = (i%200 - 100) * 50
	}
	seg := &audio.Segment{
		Data:     data,
		Format:   &goaudio.Format{NumChannels: 1, SampleRate: 44100},
		BitDepth: 16,
	}
	path := filepath.Join(t.TempDir(), "kit.wav")
	if err := (codec.WAV{}).Encode(path, seg); err != nil {
		t.Fatalf("writing test WAV: %v", err)
	}
	return path
}

func TestCueRoundTrip(t *testing.T) {
	path := writeTestWAV(t, 5000)
	in := []kit.CuePosition{
		{ID: 1, FrameOffset: 44},
		{ID: 2, FrameOffset: 1290},
		{ID: 3, FrameOffset: 4999},
	}

	if err := WriteCuePoints(path, in); err != nil {
		t.Fatalf("writing cue points: %v", err)
	}

	out, err := ReadCuePoints(path)
	if err != nil {
		t.Fatalf("reading cue points: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d cue points, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("cue %d: expected %+v, got %+v", i, in[i], out[i])
		}
	}
}

func TestCueChunkLayout(t *testing.T) {
	path := writeTestWAV(t, 1000)
	cues := []kit.CuePosition{
		{ID: 1, FrameOffset: 10},
		{ID: 2, FrameOffset: 500},
	}
	if err := WriteCuePoints(path, cues); err != nil {
		t.Fatalf("writing cue points: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	idx := bytes.LastIndex(raw, []byte("cue "))
	if idx < 0 {
		t.Fatal("no cue chunk in file")
	}
	chunk := raw[idx:]

	if size := binary.LittleEndian.Uint32(chunk[4:]); size != 4+24*2 {
		t.Errorf("expected chunk size %d, got %d", 4+24*2, size)
	}
	if n := binary.LittleEndian.Uint32(chunk[8:]); n != 2 {
		t.Errorf("expected 2 cue points, got %d", n)
	}

	// First cue point: id, position, "data", 0, 0, sample offset.
	point := chunk[12:]
	if id := binary.LittleEndian.Uint32(point[0:]); id != 1 {
		t.Errorf("expected id 1, got %d", id)
	}
	if pos := binary.LittleEndian.Uint32(point[4:]); pos != 10 {
		t.Errorf("expected position 10, got %d", pos)
	}
	if string(point[8:12]) != "data" {
		t.Errorf("expected data tag, got %q", point[8:12])
	}
	if cs := binary.LittleEndian.Uint32(point[12:]); cs != 0 {
		t.Errorf("expected chunk start 0, got %d", cs)
	}
	if bs := binary.LittleEndian.Uint32(point[16:]); bs != 0 {
		t.Errorf("expected block start 0, got %d", bs)
	}
	if so := binary.LittleEndian.Uint32(point[20:]); so != 10 {
		t.Errorf("expected sample offset 10, got %d", so)
	}
}

func TestWritePreservesAudioData(t *testing.T) {
	path := writeTestWAV(t, 3000)
	before, err := (codec.WAV{}).Decode(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := WriteCuePoints(path, []kit.CuePosition{{ID: 1, FrameOffset: 100}}); err != nil {
		t.Fatalf("writing cue points: %v", err)
	}

	after, err := (codec.WAV{}).Decode(path)
	if err != nil {
		t.Fatalf("decoding rewritten file: %v", err)
	}
	if after.NumFrames() != before.NumFrames() {
		t.Fatalf("frame count changed: %d to %d", before.NumFrames(), after.NumFrames())
	}
	for i := range before.Data {
		if before.Data[i] != after.Data[i] {
			t.Fatalf("sample %d changed: %d to %d", i, before.Data[i], after.Data[i])
		}
	}
}

func TestRewriteReplacesStaleCueChunk(t *testing.T) {
	path := writeTestWAV(t, 1000)
	if err := WriteCuePoints(path, []kit.CuePosition{{ID: 1, FrameOffset: 10}, {ID: 2, FrameOffset: 20}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteCuePoints(path, []kit.CuePosition{{ID: 1, FrameOffset: 42}}); err != nil {
		t.Fatal(err)
	}

	out, err := ReadCuePoints(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].FrameOffset != 42 {
		t.Errorf("expected the single replacement cue, got %+v", out)
	}
}

func TestOffsetBeyondUint32(t *testing.T) {
	path := writeTestWAV(t, 100)
	err := WriteCuePoints(path, []kit.CuePosition{{ID: 1, FrameOffset: math.MaxUint32 + 1}})
	var ee *kit.ExportError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *kit.ExportError, got %T: %v", err, err)
	}
}

func TestWriteCuePointsMissingFile(t *testing.T) {
	err := WriteCuePoints(filepath.Join(t.TempDir(), "nope.wav"), []kit.CuePosition{{ID: 1, FrameOffset: 1}})
	var ee *kit.ExportError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *kit.ExportError, got %T: %v", err, err)
	}
}

func TestReadCuePointsNoChunk(t *testing.T) {
	path := writeTestWAV(t, 100)
	cues, err := ReadCuePoints(path)
	if err != nil {
		t.Fatalf("reading cue-less file: %v", err)
	}
	if len(cues) != 0 {
		t.Errorf("expected no cue points, got %d", len(cues))
	}
}
