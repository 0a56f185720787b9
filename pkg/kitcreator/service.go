// Package kitcreator merges WAV recordings into a single sliced kit file
// for the Dirtywave M8 and Elektron Octatrack. Each source file is trimmed
// of silence, separated from its neighbors by a short silent marker, and
// addressed by a frame-accurate cue position so a sampler can play it as an
// independent slice.
package kitcreator

import (
	"fmt"
	"strings"

	"github.com/m8kit/kitcreator/internal/codec"
	"github.com/m8kit/kitcreator/internal/cue"
	"github.com/m8kit/kitcreator/internal/kit"
	"github.com/m8kit/kitcreator/internal/octatrack"
	"github.com/m8kit/kitcreator/internal/validate"
	"github.com/m8kit/kitcreator/pkg/logger"
)

// Service assembles kits from ordered lists of WAV files.
type Service interface {
	// CreateKit merges the files in order into outputPath and writes the
	// slice metadata the configured output format asks for. The progress
	// callback may be nil.
	//
	// When the WAV and its cue chunk succeed but the .ot sidecar fails,
	// CreateKit returns both a non-nil Result and a *octatrack.Error so the
	// caller can report the partial success.
	CreateKit(files []string, outputPath string, progress kit.ProgressFunc) (*Result, error)
}

// Result summarizes a finished (or partially finished) kit run.
type Result struct {
	OutputPath  string
	OTPath      string // empty unless an .ot file was requested and written
	NumChannels int
	SampleRate  int
	TotalFrames int
	CuePoints   []kit.CuePosition
	NumSlices   int
}

type kitService struct {
	cfg *Config
	log Logger
}

// NewService builds a Service from the default configuration plus options.
func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Codec == nil {
		cfg.Codec = codec.WAV{}
	}

	if cfg.MarkerDurationMS <= 0 {
		return nil, fmt.Errorf("marker duration must be positive, got %d ms", cfg.MarkerDurationMS)
	}
	if cfg.MinSilenceLenMS <= 0 {
		return nil, fmt.Errorf("minimum silence length must be positive, got %d ms", cfg.MinSilenceLenMS)
	}
	if cfg.RetainedSilenceMS < 0 {
		return nil, fmt.Errorf("retained silence must not be negative, got %d ms", cfg.RetainedSilenceMS)
	}
	if cfg.SilenceThresholdDBFS > 0 {
		return nil, fmt.Errorf("silence threshold must be in dBFS (<= 0), got %g", cfg.SilenceThresholdDBFS)
	}
	if cfg.TempoBPM <= 0 {
		return nil, fmt.Errorf("tempo must be positive, got %g BPM", cfg.TempoBPM)
	}

	return &kitService{cfg: cfg, log: cfg.Logger}, nil
}

func (s *kitService) CreateKit(files []string, outputPath string, progress kit.ProgressFunc) (*Result, error) {
	if err := validate.Files(files); err != nil {
		return nil, err
	}

	assembler := kit.NewAssembler(kit.Config{
		MarkerDurationMS:     s.cfg.MarkerDurationMS,
		SilenceThresholdDBFS: s.cfg.SilenceThresholdDBFS,
		MinSilenceLenMS:      s.cfg.MinSilenceLenMS,
		RetainedSilenceMS:    s.cfg.RetainedSilenceMS,
		ForceMono:            s.cfg.ForceMono,
	}, s.cfg.Codec)

	k, err := assembler.Assemble(files, progress)
	if err != nil {
		return nil, err
	}

	s.log.Infof("exporting %s (%s, %d Hz)", outputPath, validate.ChannelDescription(k.NumChannels), k.SampleRate)
	if err := s.cfg.Codec.Encode(outputPath, k.Merged); err != nil {
		return nil, &kit.ExportError{Path: outputPath, Stage: "wav export", Err: err}
	}

	res := &Result{
		OutputPath:  outputPath,
		NumChannels: k.NumChannels,
		SampleRate:  k.SampleRate,
		TotalFrames: k.Merged.NumFrames(),
		CuePoints:   k.CuePositions,
	}

	if s.cfg.OutputFormat.wantsCueChunk() {
		s.log.Debugf("appending %d cue points", len(k.CuePositions))
		if err := cue.WriteCuePoints(outputPath, k.CuePositions); err != nil {
			return nil, err
		}
	}

	if s.cfg.OutputFormat.wantsOTFile() {
		otPath := otSiblingPath(outputPath)
		slices := octatrack.SlicesFromCues(k.CuePositions)
		settings := octatrack.Settings{
			SampleRate:  k.SampleRate,
			TotalFrames: uint32(k.Merged.NumFrames()),
			TempoBPM:    s.cfg.TempoBPM,
			GainDB:      s.cfg.GainDB,
			LoopType:    s.cfg.LoopType,
			StretchMode: s.cfg.StretchMode,
			Quantize:    s.cfg.Quantize,
		}
		if err := octatrack.Write(otPath, settings, slices); err != nil {
			// The WAV (and cue chunk, if requested) is already on disk.
			return res, err
		}
		res.OTPath = otPath
		res.NumSlices = len(slices)
	}

	s.log.Infof("kit complete: %d files, %d cue points", len(files), len(k.CuePositions))
	return res, nil
}

// otSiblingPath places the .ot file next to the WAV with the same base name.
func otSiblingPath(wavPath string) string {
	if strings.HasSuffix(strings.ToLower(wavPath), ".wav") {
		return wavPath[:len(wavPath)-4] + ".ot"
	}
	return wavPath + ".ot"
}
