package kitcreator

import "fmt"

// Format selects which slice-metadata sidecars a kit run produces alongside
// the merged WAV.
type Format int

const (
	// FormatM8 appends a RIFF cue chunk to the merged WAV.
	FormatM8 Format = iota
	// FormatOctatrack writes a sibling .ot metadata file.
	FormatOctatrack
	// FormatBoth produces the cue chunk and the .ot file.
	FormatBoth
)

func (f Format) String() string {
	switch f {
	case FormatM8:
		return "m8"
	case FormatOctatrack:
		return "octatrack"
	case FormatBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseFormat maps the CLI spelling of a format to its value.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "m8":
		return FormatM8, nil
	case "octatrack", "ot":
		return FormatOctatrack, nil
	case "both":
		return FormatBoth, nil
	default:
		return 0, fmt.Errorf("unknown output format %q (want m8, octatrack or both)", s)
	}
}

func (f Format) wantsCueChunk() bool { return f == FormatM8 || f == FormatBoth }

func (f Format) wantsOTFile() bool { return f == FormatOctatrack || f == FormatBoth }
