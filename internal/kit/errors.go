package kit

import (
	"errors"
	"fmt"
)

// ErrSampleRateMismatch marks a source file whose sample rate differs from
// the first file in the run. Markers and pads are built once at the first
// file's rate, so mixing rates would silently misplace every later cue.
var ErrSampleRateMismatch = errors.New("sample rate differs from first file")

// ErrNoSourceFiles is returned when Assemble is called with an empty list.
var ErrNoSourceFiles = errors.New("no source files")

// LoadError reports a source file that could not be decoded. It aborts the
// whole run; no partial kit is returned.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExportError reports a failure while writing the merged WAV or appending
// cue points to it. Stage names the step that failed so the caller can tell
// whether a WAV exists on disk without cue points.
type ExportError struct {
	Path  string
	Stage string
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s (%s): %v", e.Path, e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
