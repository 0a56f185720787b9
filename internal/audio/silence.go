package audio

// Silence detection runs at millisecond resolution: the segment is scored in
// 1 ms blocks and a block is silent when its RMS level is at or below the
// dBFS threshold. A silence run only counts once it spans at least
// minSilenceLenMS consecutive blocks.

// frameRange is a half-open run of frames [start, end).
type frameRange struct {
	start int
	end   int
}

// silentRuns returns the silence runs of at least minSilenceLenMS
// milliseconds, in order.
func silentRuns(s *Segment, thresholdDBFS float64, minSilenceLenMS int) []frameRange {
	blockFrames := s.Format.SampleRate / 1000
	if blockFrames < 1 {
		blockFrames = 1
	}
	frames := s.NumFrames()
	if frames == 0 || minSilenceLenMS <= 0 {
		return nil
	}

	minBlocks := minSilenceLenMS
	var runs []frameRange
	runStart := -1

	numBlocks := (frames + blockFrames - 1) / blockFrames
	for b := 0; b <= numBlocks; b++ {
		silent := false
		if b < numBlocks {
			lo := b * blockFrames
			hi := lo + blockFrames
			if hi > frames {
				hi = frames
			}
			silent = s.DBFS(lo, hi) <= thresholdDBFS
		}
		switch {
		case silent && runStart < 0:
			runStart = b
		case !silent && runStart >= 0:
			if b-runStart >= minBlocks {
				end := b * blockFrames
				if end > frames {
					end = frames
				}
				runs = append(runs, frameRange{start: runStart * blockFrames, end: end})
			}
			runStart = -1
		}
	}
	return runs
}

// Split cuts the segment into its non-silent chunks, dropping every silence
// run of at least minSilenceLenMS milliseconds whose level never rises above
// thresholdDBFS. When no qualifying silence exists the original segment is
// returned as the single chunk. A fully silent segment yields no chunks.
func Split(s *Segment, thresholdDBFS float64, minSilenceLenMS int) []*Segment {
	runs := silentRuns(s, thresholdDBFS, minSilenceLenMS)
	if len(runs) == 0 {
		return []*Segment{s}
	}

	frames := s.NumFrames()
	var chunks []*Segment
	pos := 0
	for _, r := range runs {
		if r.start > pos {
			chunks = append(chunks, s.FrameSlice(pos, r.start))
		}
		pos = r.end
	}
	if pos < frames {
		chunks = append(chunks, s.FrameSlice(pos, frames))
	}
	return chunks
}

// Rejoin concatenates chunks with pad between them: every chunk is followed
// by the pad and the final trailing pad is trimmed off. An empty chunk list
// yields an empty segment in the pad's format.
func Rejoin(chunks []*Segment, pad *Segment) *Segment {
	out := NewSegment(pad.Format, pad.BitDepth)
	if len(chunks) == 0 {
		return out
	}
	out.BitDepth = chunks[0].BitDepth
	for _, c := range chunks {
		out.Append(c)
		out.Append(pad)
	}
	out.TrimTail(pad.NumFrames())
	return out
}

// TrimSilence removes qualifying silence runs from the segment and rejoins
// the remaining chunks with pad. A segment with no detectable non-silent
// content is returned unchanged, matching the split policy of never erroring
// out on "no silence found".
func TrimSilence(s *Segment, thresholdDBFS float64, minSilenceLenMS int, pad *Segment) *Segment {
	chunks := Split(s, thresholdDBFS, minSilenceLenMS)
	if len(chunks) == 0 {
		return s
	}
	return Rejoin(chunks, pad)
}
