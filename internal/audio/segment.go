package audio

import (
	"fmt"
	"math"

	"github.com/go-audio/audio"
)

// Segment is an in-memory run of interleaved PCM samples. The invariant
// len(Data) % Format.NumChannels == 0 holds for every segment produced by
// this package.
type Segment struct {
	Data     []int
	Format   *audio.Format
	BitDepth int
}

// NewSegment returns an empty segment with the given format.
func NewSegment(format *audio.Format, bitDepth int) *Segment {
	return &Segment{
		Data:     []int{},
		Format:   &audio.Format{NumChannels: format.NumChannels, SampleRate: format.SampleRate},
		BitDepth: bitDepth,
	}
}

// Silent returns a segment of digital silence lasting durationMS milliseconds
// at the given sample rate and channel count.
func Silent(durationMS, sampleRate, numChannels, bitDepth int) *Segment {
	frames := sampleRate * durationMS / 1000
	return &Segment{
		Data:     make([]int, frames*numChannels),
		Format:   &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		BitDepth: bitDepth,
	}
}

// FromIntBuffer wraps a decoded go-audio buffer as a Segment. The buffer's
// data is not copied; the segment takes ownership.
func FromIntBuffer(buf *audio.IntBuffer) *Segment {
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	return &Segment{
		Data:     buf.Data,
		Format:   buf.Format,
		BitDepth: bitDepth,
	}
}

// AsIntBuffer exposes the segment as a go-audio buffer for encoding.
func (s *Segment) AsIntBuffer() *audio.IntBuffer {
	return &audio.IntBuffer{
		Data:           s.Data,
		Format:         s.Format,
		SourceBitDepth: s.BitDepth,
	}
}

// NumFrames returns the frame count (samples divided by channels).
func (s *Segment) NumFrames() int {
	if s.Format == nil || s.Format.NumChannels == 0 {
		return 0
	}
	return len(s.Data) / s.Format.NumChannels
}

// Append concatenates other's samples onto s. Both segments must share the
// same channel count and sample rate.
func (s *Segment) Append(other *Segment) {
	s.Data = append(s.Data, other.Data...)
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() *Segment {
	data := make([]int, len(s.Data))
	copy(data, s.Data)
	return &Segment{
		Data:     data,
		Format:   &audio.Format{NumChannels: s.Format.NumChannels, SampleRate: s.Format.SampleRate},
		BitDepth: s.BitDepth,
	}
}

// FrameSlice returns a copy of the frames in [start, end).
func (s *Segment) FrameSlice(start, end int) *Segment {
	ch := s.Format.NumChannels
	data := make([]int, (end-start)*ch)
	copy(data, s.Data[start*ch:end*ch])
	return &Segment{
		Data:     data,
		Format:   &audio.Format{NumChannels: ch, SampleRate: s.Format.SampleRate},
		BitDepth: s.BitDepth,
	}
}

// TrimTail removes the last frames frames from the segment.
func (s *Segment) TrimTail(frames int) {
	if frames <= 0 {
		return
	}
	n := frames * s.Format.NumChannels
	if n > len(s.Data) {
		n = len(s.Data)
	}
	s.Data = s.Data[:len(s.Data)-n]
}

// WithChannels returns a segment converted to the requested channel count.
// Downmixing averages all channels per frame; upmixing from mono duplicates
// the single channel. Other conversions are not supported.
func (s *Segment) WithChannels(numChannels int) (*Segment, error) {
	cur := s.Format.NumChannels
	switch {
	case numChannels == cur:
		return s, nil
	case numChannels == 1:
		frames := s.NumFrames()
		data := make([]int, frames)
		for i := 0; i < frames; i++ {
			sum := 0
			for c := 0; c < cur; c++ {
				sum += s.Data[i*cur+c]
			}
			data[i] = sum / cur
		}
		return &Segment{
			Data:     data,
			Format:   &audio.Format{NumChannels: 1, SampleRate: s.Format.SampleRate},
			BitDepth: s.BitDepth,
		}, nil
	case cur == 1:
		frames := s.NumFrames()
		data := make([]int, frames*numChannels)
		for i := 0; i < frames; i++ {
			for c := 0; c < numChannels; c++ {
				data[i*numChannels+c] = s.Data[i]
			}
		}
		return &Segment{
			Data:     data,
			Format:   &audio.Format{NumChannels: numChannels, SampleRate: s.Format.SampleRate},
			BitDepth: s.BitDepth,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported channel conversion: %d to %d", cur, numChannels)
	}
}

// fullScale is the largest representable amplitude for the segment's bit
// depth, used as the dBFS reference.
func (s *Segment) fullScale() float64 {
	return float64(int64(1) << (s.BitDepth - 1))
}

// rms computes the root mean square amplitude of the samples in the frame
// range [start, end) across all channels.
func (s *Segment) rms(start, end int) float64 {
	ch := s.Format.NumChannels
	lo, hi := start*ch, end*ch
	if hi > len(s.Data) {
		hi = len(s.Data)
	}
	if lo >= hi {
		return 0
	}
	var sum float64
	for _, v := range s.Data[lo:hi] {
		f := float64(v)
		sum += f * f
	}
	return math.Sqrt(sum / float64(hi-lo))
}

// DBFS returns the RMS level of the frame range [start, end) in decibels
// relative to full scale. Digital silence yields -Inf.
func (s *Segment) DBFS(start, end int) float64 {
	r := s.rms(start, end)
	if r == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(r/s.fullScale())
}
