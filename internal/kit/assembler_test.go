package kit

import (
	"errors"
	"testing"

	goaudio "github.com/go-audio/audio"

	"github.com/m8kit/kitcreator/internal/audio"
)

// fakeCodec serves segments from memory so assembler tests need no files.
type fakeCodec struct {
	files   map[string]*audio.Segment
	encoded map[string]*audio.Segment
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{
		files:   map[string]*audio.Segment{},
		encoded: map[string]*audio.Segment{},
	}
}

func (f *fakeCodec) Decode(path string) (*audio.Segment, error) {
	seg, ok := f.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return seg.Clone(), nil
}

func (f *fakeCodec) Encode(path string, seg *audio.Segment) error {
	f.encoded[path] = seg
	return nil
}

// sourceSegment builds a 1000 Hz segment of leadMS silent frames followed by
// toneMS loud frames.
func sourceSegment(leadMS, toneMS, numChannels int) *audio.Segment {
	data := make([]int, leadMS*numChannels, (leadMS+toneMS)*numChannels)
	for i := 0; i < toneMS*numChannels; i++ {
		data = append(data, 10000)
	}
	return &audio.Segment{
		Data:     data,
		Format:   &goaudio.Format{NumChannels: numChannels, SampleRate: 1000},
		BitDepth: 16,
	}
}

func testConfig() Config {
	return Config{
		MarkerDurationMS:     2,
		SilenceThresholdDBFS: -50.0,
		MinSilenceLenMS:      10,
		RetainedSilenceMS:    1,
	}
}

func TestAssembleCuePositions(t *testing.T) {
	fc := newFakeCodec()
	fc.files["a.wav"] = sourceSegment(20, 100, 1)
	fc.files["b.wav"] = sourceSegment(20, 100, 1)

	k, err := NewAssembler(testConfig(), fc).Assemble([]string{"a.wav", "b.wav"}, nil)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	// N files yield N+1 cue points.
	if len(k.CuePositions) != 3 {
		t.Fatalf("expected 3 cue points, got %d", len(k.CuePositions))
	}

	// 2 ms marker at 1000 Hz is 2 frames; the leading silence of each file
	// is trimmed, leaving 100 tone frames per file.
	want := []uint64{2, 102, 204}
	for i, c := range k.CuePositions {
		if c.ID != uint32(i+1) {
			t.Errorf("cue %d: expected id %d, got %d", i, i+1, c.ID)
		}
		if c.FrameOffset != want[i] {
			t.Errorf("cue %d: expected frame %d, got %d", i, want[i], c.FrameOffset)
		}
	}

	// The merged buffer ends with one trailing marker.
	if got := k.Merged.NumFrames(); got != 206 {
		t.Errorf("expected 206 merged frames, got %d", got)
	}
}

func TestAssembleCuesStrictlyIncreasing(t *testing.T) {
	fc := newFakeCodec()
	paths := []string{"a.wav", "b.wav", "c.wav", "d.wav"}
	for i, p := range paths {
		fc.files[p] = sourceSegment(5*i, 40+10*i, 1)
	}

	k, err := NewAssembler(testConfig(), fc).Assemble(paths, nil)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if len(k.CuePositions) != len(paths)+1 {
		t.Fatalf("expected %d cue points, got %d", len(paths)+1, len(k.CuePositions))
	}
	for i := 1; i < len(k.CuePositions); i++ {
		if k.CuePositions[i].FrameOffset <= k.CuePositions[i-1].FrameOffset {
			t.Errorf("cue %d (%d) not greater than cue %d (%d)",
				i, k.CuePositions[i].FrameOffset, i-1, k.CuePositions[i-1].FrameOffset)
		}
	}
}

func TestAssembleProgressCallback(t *testing.T) {
	fc := newFakeCodec()
	fc.files["a.wav"] = sourceSegment(0, 50, 1)
	fc.files["b.wav"] = sourceSegment(0, 50, 1)

	var calls [][2]int
	progress := func(current, total int) {
		calls = append(calls, [2]int{current, total})
	}

	if _, err := NewAssembler(testConfig(), fc).Assemble([]string{"a.wav", "b.wav"}, progress); err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	want := [][2]int{{0, 2}, {1, 2}, {2, 2}}
	if len(calls) != len(want) {
		t.Fatalf("expected %d progress calls, got %d: %v", len(want), len(calls), calls)
	}
	for i, w := range want {
		if calls[i] != w {
			t.Errorf("call %d: expected %v, got %v", i, w, calls[i])
		}
	}
}

func TestAssembleLoadErrorAbortsRun(t *testing.T) {
	fc := newFakeCodec()
	fc.files["a.wav"] = sourceSegment(0, 50, 1)

	_, err := NewAssembler(testConfig(), fc).Assemble([]string{"a.wav", "missing.wav"}, nil)
	if err == nil {
		t.Fatal("expected a load error")
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %T: %v", err, err)
	}
	if le.Path != "missing.wav" {
		t.Errorf("expected failing path missing.wav, got %s", le.Path)
	}
}

func TestAssembleRejectsMixedSampleRates(t *testing.T) {
	fc := newFakeCodec()
	fc.files["a.wav"] = sourceSegment(0, 50, 1)
	other := sourceSegment(0, 50, 1)
	other.Format.SampleRate = 2000
	fc.files["b.wav"] = other

	_, err := NewAssembler(testConfig(), fc).Assemble([]string{"a.wav", "b.wav"}, nil)
	if !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("expected sample rate mismatch, got %v", err)
	}
}

func TestAssembleForceMono(t *testing.T) {
	fc := newFakeCodec()
	fc.files["a.wav"] = sourceSegment(0, 100, 2)

	cfg := testConfig()
	cfg.ForceMono = true
	k, err := NewAssembler(cfg, fc).Assemble([]string{"a.wav"}, nil)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if k.NumChannels != 1 {
		t.Errorf("expected mono output, got %d channels", k.NumChannels)
	}
	if len(k.Merged.Data) != k.Merged.NumFrames() {
		t.Error("mono buffer should have one sample per frame")
	}
}

func TestAssembleStereoPreserved(t *testing.T) {
	fc := newFakeCodec()
	fc.files["a.wav"] = sourceSegment(0, 100, 2)
	fc.files["b.wav"] = sourceSegment(0, 100, 1) // upmixed to match

	k, err := NewAssembler(testConfig(), fc).Assemble([]string{"a.wav", "b.wav"}, nil)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if k.NumChannels != 2 {
		t.Errorf("expected stereo output, got %d channels", k.NumChannels)
	}
	// Frame offsets stay channel-independent: marker 2 frames, 100 tone
	// frames per file.
	want := []uint64{2, 102, 204}
	for i, c := range k.CuePositions {
		if c.FrameOffset != want[i] {
			t.Errorf("cue %d: expected frame %d, got %d", i, want[i], c.FrameOffset)
		}
	}
}

func TestAssembleEmptyFileList(t *testing.T) {
	_, err := NewAssembler(testConfig(), newFakeCodec()).Assemble(nil, nil)
	if !errors.Is(err, ErrNoSourceFiles) {
		t.Fatalf("expected ErrNoSourceFiles, got %v", err)
	}
}
