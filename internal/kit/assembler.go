package kit

import (
	"github.com/m8kit/kitcreator/internal/audio"
	"github.com/m8kit/kitcreator/pkg/logger"
)

// Codec decodes source WAV files and encodes the merged result. It is
// injected so the assembler never touches ambient codec state.
type Codec interface {
	Decode(path string) (*audio.Segment, error)
	Encode(path string, seg *audio.Segment) error
}

// ProgressFunc receives (current, total) before each file is processed and
// once more as (total, total) after the last one. It is called synchronously
// on the assembling goroutine.
type ProgressFunc func(current, total int)

// Config holds the processing parameters for one assembly run.
type Config struct {
	MarkerDurationMS     int
	SilenceThresholdDBFS float64
	MinSilenceLenMS      int
	RetainedSilenceMS    int
	ForceMono            bool
}

// CuePosition is a frame-accurate marker inside the merged buffer. IDs are
// 1-based and offsets are frames, not samples, so mono and stereo kits use
// the same addressing unit.
type CuePosition struct {
	ID          uint32
	FrameOffset uint64
}

// Kit is the result of one assembly run: the merged PCM buffer plus the
// ordered cue positions that bound each source file's audio.
type Kit struct {
	Merged       *audio.Segment
	CuePositions []CuePosition
	NumChannels  int
	SampleRate   int
}

// Assembler merges source files into a single sliced kit buffer.
type Assembler struct {
	cfg   Config
	codec Codec
	log   *logger.Logger
}

func NewAssembler(cfg Config, codec Codec) *Assembler {
	return &Assembler{
		cfg:   cfg,
		codec: codec,
		log:   logger.GetLogger(),
	}
}

// Assemble loads, trims and concatenates the files in order. The merged
// buffer starts with one silent marker, carries a cue position after the
// leading marker and after each file's trimmed audio, and ends with a
// trailing marker after the last file. Any file that cannot be decoded, or
// whose sample rate differs from the first file's, aborts the run with a
// *LoadError.
func (a *Assembler) Assemble(files []string, progress ProgressFunc) (*Kit, error) {
	if len(files) == 0 {
		return nil, ErrNoSourceFiles
	}

	total := len(files)
	var (
		merged     *audio.Segment
		marker     *audio.Segment
		pad        *audio.Segment
		channels   int
		sampleRate int
		cues       []CuePosition
	)

	for i, path := range files {
		if progress != nil {
			progress(i, total)
		}

		seg, err := a.codec.Decode(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		if i == 0 {
			channels = seg.Format.NumChannels
			if a.cfg.ForceMono {
				channels = 1
			}
			sampleRate = seg.Format.SampleRate

			// Marker and retained-silence pad are built once at the first
			// file's rate and reused for the whole run.
			marker = audio.Silent(a.cfg.MarkerDurationMS, sampleRate, channels, seg.BitDepth)
			pad = audio.Silent(a.cfg.RetainedSilenceMS, sampleRate, channels, seg.BitDepth)

			merged = audio.NewSegment(marker.Format, seg.BitDepth)
			merged.Append(marker)
			cues = append(cues, CuePosition{ID: 1, FrameOffset: uint64(marker.NumFrames())})
		} else if seg.Format.SampleRate != sampleRate {
			return nil, &LoadError{Path: path, Err: ErrSampleRateMismatch}
		}

		if seg.Format.NumChannels != channels {
			seg, err = seg.WithChannels(channels)
			if err != nil {
				return nil, &LoadError{Path: path, Err: err}
			}
		}

		processed := audio.TrimSilence(seg, a.cfg.SilenceThresholdDBFS, a.cfg.MinSilenceLenMS, pad)
		a.log.Debugf("processed %s: %d frames in, %d frames out", path, seg.NumFrames(), processed.NumFrames())

		merged.Append(processed)
		cues = append(cues, CuePosition{
			ID:          uint32(len(cues) + 1),
			FrameOffset: uint64(len(merged.Data) / channels),
		})
		merged.Append(marker)
	}

	if progress != nil {
		progress(total, total)
	}

	a.log.Infof("assembled %d files: %d frames, %d cue points", total, merged.NumFrames(), len(cues))
	return &Kit{
		Merged:       merged,
		CuePositions: cues,
		NumChannels:  channels,
		SampleRate:   sampleRate,
	}, nil
}
