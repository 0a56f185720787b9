// Package octatrack serializes Elektron Octatrack .ot sample-metadata files.
// The format is a fixed 832-byte big-endian layout reverse engineered by the
// OctaChainer project: a 16-byte header, tempo/trim/loop/gain settings, a
// 64-entry slice table and a 16-bit checksum over everything between header
// and checksum.
package octatrack

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/m8kit/kitcreator/internal/kit"
)

const (
	// FileSize is the exact size of every .ot file.
	FileSize = 832
	// MaxSlices is the hard format limit on slices per sample.
	MaxSlices = 64
	// NoLoop in a slice's loop field means the slice does not loop.
	NoLoop = 0xFFFFFFFF

	headerSize     = 16
	checksumOffset = 0x33E
	sliceTableOff  = 0x38
)

// headerMagic is the fixed 16-byte file header: FORM tag plus DPS1 SMPA type.
var headerMagic = []byte("FORM\x00\x00\x03,DPS1SMPA")

// LoopType selects the sample loop mode.
type LoopType uint32

const (
	LoopOff LoopType = iota
	LoopOn
	LoopPingPong
)

// StretchMode selects the timestretch algorithm.
type StretchMode uint32

const (
	StretchOff StretchMode = iota
	StretchNormal
	StretchBeat
)

// ErrTooManySlices is wrapped into the returned *Error when more than
// MaxSlices slices are supplied.
var ErrTooManySlices = fmt.Errorf("more than %d slices", MaxSlices)

// Error reports a failed .ot serialization or write.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("octatrack: %v", e.Err)
	}
	return fmt.Sprintf("octatrack %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Slice is one addressable region of the sample, in frames. A Loop of
// NoLoop disables looping for the slice.
type Slice struct {
	Start uint32
	End   uint32
	Loop  uint32
}

// Settings carries the sample-level parameters written to the .ot file.
type Settings struct {
	SampleRate  int
	TotalFrames uint32
	TempoBPM    float64
	GainDB      int
	LoopType    LoopType
	StretchMode StretchMode
	Quantize    uint8
}

// DefaultSettings mirrors the defaults the Octatrack itself assumes for a
// fresh sample: 120 BPM, unity gain, no loop, no stretch, no quantize.
func DefaultSettings(sampleRate int, totalFrames uint32) Settings {
	return Settings{
		SampleRate:  sampleRate,
		TotalFrames: totalFrames,
		TempoBPM:    120.0,
	}
}

// SlicesFromCues derives one slice per source file from the assembler's cue
// positions: slice i spans [cue[i], cue[i+1]). K+1 cue points yield K
// non-looping slices.
func SlicesFromCues(cues []kit.CuePosition) []Slice {
	if len(cues) < 2 {
		return nil
	}
	slices := make([]Slice, 0, len(cues)-1)
	for i := 0; i+1 < len(cues); i++ {
		slices = append(slices, Slice{
			Start: uint32(cues[i].FrameOffset),
			End:   uint32(cues[i+1].FrameOffset),
			Loop:  NoLoop,
		})
	}
	return slices
}

// Encode serializes the settings and slices into the 832-byte .ot image.
func Encode(s Settings, slices []Slice) ([]byte, error) {
	if len(slices) > MaxSlices {
		return nil, ErrTooManySlices
	}

	data := make([]byte, FileSize)
	copy(data[0:headerSize], headerMagic)

	be := binary.BigEndian
	bars := barsLength(s.TotalFrames, s.SampleRate, s.TempoBPM)

	be.PutUint32(data[0x10:], uint32(math.Round(s.TempoBPM*6)))
	trimLen := uint32(math.Round(bars * 384))
	be.PutUint32(data[0x14:], trimLen)
	// Loop length mirrors trim length until a distinct loop region is needed.
	be.PutUint32(data[0x18:], trimLen)
	be.PutUint32(data[0x1C:], uint32(s.StretchMode))
	be.PutUint32(data[0x20:], uint32(s.LoopType))
	be.PutUint16(data[0x24:], uint16(s.GainDB+48))
	data[0x26] = s.Quantize
	be.PutUint32(data[0x28:], 0) // trim start
	be.PutUint32(data[0x2C:], s.TotalFrames)
	be.PutUint32(data[0x30:], 0) // loop point
	be.PutUint32(data[0x34:], uint32(len(slices)))

	off := sliceTableOff
	for _, sl := range slices {
		be.PutUint32(data[off:], sl.Start)
		be.PutUint32(data[off+4:], sl.End)
		be.PutUint32(data[off+8:], sl.Loop)
		off += 12
	}

	be.PutUint16(data[checksumOffset:], checksum(data))
	return data, nil
}

// Write serializes and writes the .ot file at path. Nothing is written when
// the slice count exceeds the format limit.
func Write(path string, s Settings, slices []Slice) error {
	data, err := Encode(s, slices)
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

// barsLength converts the sample duration to bars at the given tempo,
// quantized to the nearest 0.25 bars with a floor of 0.25.
func barsLength(totalFrames uint32, sampleRate int, bpm float64) float64 {
	if totalFrames == 0 || sampleRate == 0 {
		return 1.0
	}
	seconds := float64(totalFrames) / float64(sampleRate)
	beats := seconds * bpm / 60.0
	bars := math.Round(beats) / 4.0
	return math.Max(0.25, bars)
}

// checksum sums every byte between the header and the checksum field,
// truncated to 16 bits.
func checksum(data []byte) uint16 {
	var sum uint32
	for _, b := range data[headerSize:checksumOffset] {
		sum += uint32(b)
	}
	return uint16(sum)
}
