package kitcreator

import (
	"github.com/m8kit/kitcreator/internal/kit"
	"github.com/m8kit/kitcreator/internal/octatrack"
)

// Logger is the logging surface the service needs. pkg/logger satisfies it;
// callers embedding the library can inject their own.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Config collects every knob for a kit run. It is immutable once the
// service is constructed.
type Config struct {
	// Silence processing (all durations in milliseconds).
	MarkerDurationMS     int
	SilenceThresholdDBFS float64
	MinSilenceLenMS      int
	RetainedSilenceMS    int
	ForceMono            bool
	OutputFormat         Format

	// Octatrack sample parameters.
	TempoBPM    float64
	GainDB      int
	LoopType    octatrack.LoopType
	StretchMode octatrack.StretchMode
	Quantize    uint8

	Logger Logger
	Codec  kit.Codec
}

type Option func(*Config)

func WithMarkerDuration(ms int) Option {
	return func(c *Config) {
		c.MarkerDurationMS = ms
	}
}

func WithSilenceThreshold(dbfs float64) Option {
	return func(c *Config) {
		c.SilenceThresholdDBFS = dbfs
	}
}

func WithMinSilenceLen(ms int) Option {
	return func(c *Config) {
		c.MinSilenceLenMS = ms
	}
}

func WithRetainedSilence(ms int) Option {
	return func(c *Config) {
		c.RetainedSilenceMS = ms
	}
}

func WithForceMono(mono bool) Option {
	return func(c *Config) {
		c.ForceMono = mono
	}
}

func WithOutputFormat(f Format) Option {
	return func(c *Config) {
		c.OutputFormat = f
	}
}

func WithTempo(bpm float64) Option {
	return func(c *Config) {
		c.TempoBPM = bpm
	}
}

func WithGain(db int) Option {
	return func(c *Config) {
		c.GainDB = db
	}
}

func WithLoopType(lt octatrack.LoopType) Option {
	return func(c *Config) {
		c.LoopType = lt
	}
}

func WithStretchMode(sm octatrack.StretchMode) Option {
	return func(c *Config) {
		c.StretchMode = sm
	}
}

func WithQuantize(q uint8) Option {
	return func(c *Config) {
		c.Quantize = q
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithCodec(codec kit.Codec) Option {
	return func(c *Config) {
		c.Codec = codec
	}
}

func defaultConfig() *Config {
	return &Config{
		MarkerDurationMS:     1,
		SilenceThresholdDBFS: -50.0,
		MinSilenceLenMS:      10,
		RetainedSilenceMS:    1,
		ForceMono:            false,
		OutputFormat:         FormatM8,
		TempoBPM:             120.0,
		GainDB:               0,
	}
}
