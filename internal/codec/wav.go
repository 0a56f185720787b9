// Package codec adapts the go-audio WAV implementation to the Segment type
// used by the rest of the pipeline. It is the only package that touches the
// WAV container itself; trimming and assembly work on decoded PCM.
package codec

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"github.com/m8kit/kitcreator/internal/audio"
)

// WAV decodes and encodes PCM WAV files.
type WAV struct{}

// Decode loads an entire WAV file into memory as a Segment.
func (WAV) Decode(path string) (*audio.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	seg := audio.FromIntBuffer(buf)
	if seg.BitDepth == 0 {
		seg.BitDepth = int(d.BitDepth)
	}
	return seg, nil
}

// Encode writes the segment to path as a PCM WAV file, preserving the
// segment's sample rate, channel count and bit depth.
func (WAV) Encode(path string, seg *audio.Segment) error {
	if seg == nil || seg.Format == nil {
		return errors.New("nothing to encode")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	e := wav.NewEncoder(f, seg.Format.SampleRate, seg.BitDepth, seg.Format.NumChannels, 1)
	if err := e.Write(seg.AsIntBuffer()); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := e.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return f.Close()
}
