// Package cue appends RIFF cue-point chunks to exported WAV files and reads
// them back. Cue positions are frame offsets, which is what the Dirtywave M8
// expects when slicing a kit.
package cue

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/m8kit/kitcreator/internal/kit"
)

const pointSize = 24 // per cue point: id, position, "data", chunk start, block start, sample offset

// WriteCuePoints rewrites the WAV at path with a trailing "cue " chunk that
// lists the given positions. The existing fmt and data chunks are preserved
// byte for byte; any previous cue chunk is dropped. The rewrite goes through
// a temporary sibling file and a rename so a failure never leaves a half
// written kit behind.
func WriteCuePoints(path string, cues []kit.CuePosition) error {
	for _, c := range cues {
		if c.FrameOffset > math.MaxUint32 {
			return &kit.ExportError{Path: path, Stage: "cue points", Err: fmt.Errorf("cue %d offset %d exceeds uint32", c.ID, c.FrameOffset)}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return &kit.ExportError{Path: path, Stage: "cue points", Err: err}
	}
	fmtChunk, dataChunk, err := readPCMChunks(f)
	f.Close()
	if err != nil {
		return &kit.ExportError{Path: path, Stage: "cue points", Err: err}
	}

	tmp := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+".wav")
	if err := writeWithCues(tmp, fmtChunk, dataChunk, cues); err != nil {
		os.Remove(tmp)
		return &kit.ExportError{Path: path, Stage: "cue points", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &kit.ExportError{Path: path, Stage: "cue points", Err: err}
	}
	return nil
}

// readPCMChunks scans the RIFF container and returns the raw fmt and data
// chunk payloads.
func readPCMChunks(f *os.File) (fmtChunk, dataChunk []byte, err error) {
	var riffTag [4]byte
	var riffSize uint32
	var waveTag [4]byte
	if err := binary.Read(f, binary.LittleEndian, &riffTag); err != nil {
		return nil, nil, fmt.Errorf("reading RIFF header: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &riffSize); err != nil {
		return nil, nil, fmt.Errorf("reading RIFF size: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &waveTag); err != nil {
		return nil, nil, fmt.Errorf("reading WAVE id: %w", err)
	}
	if string(riffTag[:]) != "RIFF" || string(waveTag[:]) != "WAVE" {
		return nil, nil, errors.New("not a WAV/RIFF file")
	}

	for {
		var chunkID [4]byte
		var chunkSize uint32
		if err := binary.Read(f, binary.LittleEndian, &chunkID); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("reading chunk header: %w", err)
		}
		if err := binary.Read(f, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, fmt.Errorf("reading chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			fmtChunk = make([]byte, chunkSize)
			if _, err := io.ReadFull(f, fmtChunk); err != nil {
				return nil, nil, fmt.Errorf("reading fmt chunk: %w", err)
			}
		case "data":
			dataChunk = make([]byte, chunkSize)
			if _, err := io.ReadFull(f, dataChunk); err != nil {
				return nil, nil, fmt.Errorf("reading data chunk: %w", err)
			}
		default:
			// Unknown or stale chunk (LIST, cue from a previous run). Skip it.
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, nil, fmt.Errorf("skipping chunk %s: %w", string(chunkID[:]), err)
			}
		}

		if chunkSize%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return nil, nil, fmt.Errorf("seeking pad byte: %w", err)
			}
		}
	}

	if fmtChunk == nil {
		return nil, nil, errors.New("fmt chunk not found")
	}
	if dataChunk == nil {
		return nil, nil, errors.New("data chunk not found")
	}
	return fmtChunk, dataChunk, nil
}

// writeWithCues writes a complete WAV file: RIFF header, the preserved fmt
// and data chunks, then the cue chunk.
func writeWithCues(path string, fmtChunk, dataChunk []byte, cues []kit.CuePosition) error {
	cueChunk := encodeCueChunk(cues)

	size := 4 // "WAVE"
	size += 8 + len(fmtChunk) + len(fmtChunk)%2
	size += 8 + len(dataChunk) + len(dataChunk)%2
	size += len(cueChunk)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(size))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(len(fmtChunk)))
	buf.Write(fmtChunk)
	if len(fmtChunk)%2 == 1 {
		buf.WriteByte(0)
	}

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(dataChunk)))
	buf.Write(dataChunk)
	if len(dataChunk)%2 == 1 {
		buf.WriteByte(0)
	}

	buf.Write(cueChunk)

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// encodeCueChunk serializes the cue points in standard RIFF cue-point layout:
// chunk size 4 + 24*N, then each point as id, position, "data", chunk start
// (0), block start (0) and sample offset (duplicate of position), all little
// endian.
func encodeCueChunk(cues []kit.CuePosition) []byte {
	var buf bytes.Buffer
	buf.WriteString("cue ")
	binary.Write(&buf, binary.LittleEndian, uint32(4+pointSize*len(cues)))
	binary.Write(&buf, binary.LittleEndian, uint32(len(cues)))
	for _, c := range cues {
		binary.Write(&buf, binary.LittleEndian, c.ID)
		binary.Write(&buf, binary.LittleEndian, uint32(c.FrameOffset))
		buf.WriteString("data")
		binary.Write(&buf, binary.LittleEndian, uint32(0))
		binary.Write(&buf, binary.LittleEndian, uint32(0))
		binary.Write(&buf, binary.LittleEndian, uint32(c.FrameOffset))
	}
	return buf.Bytes()
}
