// Package chunker groups transcript segments into fixed-duration topic windows.
package chunker

import (
	"fmt"
	"math"
	"strings"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

// DefaultChunkSize is the default window length in seconds.
const DefaultChunkSize = 120.0

// Chunk folds segments into consecutive chunks. A chunk closes at the end of
// the first segment whose end reaches chunkSize seconds past the chunk's
// start; the next chunk opens where that segment ended. A trailing remainder
// becomes a final, possibly shorter chunk.
//
// Segments must be ordered by start. Empty input yields an empty result.
func Chunk(segments []transcript.Segment, chunkSize float64) ([]transcript.Chunk, error) {
	if chunkSize <= 0 || math.IsNaN(chunkSize) || math.IsInf(chunkSize, 0) {
		return nil, mnerrors.InvalidConfiguration("chunk size must be a positive number of seconds, got %v", chunkSize)
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].Start {
			return nil, fmt.Errorf("%w: segment %d starts at %.3f, before its predecessor at %.3f",
				mnerrors.ErrUnsortedInput, i, segments[i].Start, segments[i-1].Start)
		}
	}

	chunks := make([]transcript.Chunk, 0)
	if len(segments) == 0 {
		return chunks, nil
	}

	acc := newAccumulator(segments[0].Start)
	for _, seg := range segments {
		acc.add(seg)
		if seg.End-acc.start >= chunkSize {
			chunks = append(chunks, acc.close(seg.End))
			acc = newAccumulator(seg.End)
		}
	}
	if !acc.empty() {
		chunks = append(chunks, acc.close(segments[len(segments)-1].End))
	}
	return chunks, nil
}

type accumulator struct {
	start    float64
	texts    []string
	speakers transcript.SpeakerSet
}

func newAccumulator(start float64) *accumulator {
	return &accumulator{start: start, speakers: transcript.SpeakerSet{}}
}

func (a *accumulator) add(seg transcript.Segment) {
	a.texts = append(a.texts, seg.Text)
	a.speakers.Add(seg.Speaker)
}

func (a *accumulator) empty() bool {
	return len(a.texts) == 0
}

func (a *accumulator) close(end float64) transcript.Chunk {
	return transcript.Chunk{
		Start:    a.start,
		End:      end,
		Text:     strings.Join(a.texts, " "),
		Speakers: a.speakers.Sorted(),
	}
}
