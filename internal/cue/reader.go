package cue

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/riff"

	"github.com/m8kit/kitcreator/internal/kit"
)

var cueID = [4]byte{'c', 'u', 'e', ' '}

// ReadCuePoints parses the WAV at path and returns its cue points in file
// order. Files without a cue chunk yield an empty list.
func ReadCuePoints(path string) ([]kit.CuePosition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	p := riff.New(f)
	if err := p.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for {
		ch, err := p.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
		if ch.ID != cueID {
			ch.Drain()
			continue
		}
		return decodeCueChunk(ch)
	}
}

func decodeCueChunk(ch *riff.Chunk) ([]kit.CuePosition, error) {
	var count uint32
	if err := ch.ReadLE(&count); err != nil {
		return nil, fmt.Errorf("reading cue count: %w", err)
	}

	cues := make([]kit.CuePosition, 0, count)
	for i := uint32(0); i < count; i++ {
		var id, position uint32
		var dataTag [4]byte
		var chunkStart, blockStart, sampleOffset uint32
		for _, dst := range []any{&id, &position, &dataTag, &chunkStart, &blockStart, &sampleOffset} {
			if err := ch.ReadLE(dst); err != nil {
				return nil, fmt.Errorf("reading cue point %d: %w", i+1, err)
			}
		}
		if position != sampleOffset {
			return nil, fmt.Errorf("cue point %d: position %d disagrees with sample offset %d", id, position, sampleOffset)
		}
		cues = append(cues, kit.CuePosition{ID: id, FrameOffset: uint64(position)})
	}
	ch.Drain()
	return cues, nil
}
