// Package validate pre-checks WAV source files before assembly so the
// pipeline only ever sees readable PCM input within the limits hardware
// samplers accept.
package validate

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-audio/wav"
)

const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
	MinChannels   = 1
	MaxChannels   = 8
	MinBitDepth   = 8
	MaxBitDepth   = 32
)

// WAVFile checks that path names a readable, non-empty PCM WAV file with a
// channel count, bit depth and sample rate inside the supported ranges.
func WAVFile(path string) error {
	if !strings.HasSuffix(strings.ToLower(path), ".wav") {
		return fmt.Errorf("%s: not a WAV file (wrong extension)", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: file does not exist", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s: file is empty", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: cannot read file: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return fmt.Errorf("%s: invalid WAV file", path)
	}

	if int(d.NumChans) < MinChannels || int(d.NumChans) > MaxChannels {
		return fmt.Errorf("%s: unsupported channel count: %d", path, d.NumChans)
	}
	if int(d.BitDepth) < MinBitDepth || int(d.BitDepth) > MaxBitDepth {
		return fmt.Errorf("%s: unsupported sample width: %d bits", path, d.BitDepth)
	}
	if int(d.SampleRate) < MinSampleRate || int(d.SampleRate) > MaxSampleRate {
		return fmt.Errorf("%s: unsupported sample rate: %d Hz", path, d.SampleRate)
	}
	return nil
}

// Files validates every path and reports all failures at once.
func Files(paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := WAVFile(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ChannelDescription names a channel layout the way a musician would read it.
func ChannelDescription(numChannels int) string {
	switch numChannels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels (multi-channel)", numChannels)
	}
}
