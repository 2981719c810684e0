// Package speakers attributes transcript segments to speaker names.
package speakers

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

// Source labels each segment with a speaker drawn from names. Implementations
// return a new slice and leave segments untouched.
type Source interface {
	Assign(ctx context.Context, segments []transcript.Segment, names []string) ([]transcript.Segment, error)
}

// HeuristicHashAssigner picks a name by hashing each segment's text. It is a
// stand-in for diarization: the same text always maps to the same name, but
// the mapping says nothing about who actually spoke.
type HeuristicHashAssigner struct{}

// NewHeuristicHashAssigner returns the hash-based Source.
func NewHeuristicHashAssigner() *HeuristicHashAssigner {
	return &HeuristicHashAssigner{}
}

// Assign sets Speaker to names[xxhash64(NFC(text)) % len(names)], or to
// "Unknown" for every segment when names is empty.
func (a *HeuristicHashAssigner) Assign(ctx context.Context, segments []transcript.Segment, names []string) ([]transcript.Segment, error) {
	out := make([]transcript.Segment, len(segments))
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = seg
		out[i].Speaker = Pick(seg.Text, names)
	}
	return out, nil
}

// Pick returns the name text hashes to.
func Pick(text string, names []string) string {
	if len(names) == 0 {
		return transcript.UnknownSpeaker
	}
	return names[Hash(text)%uint64(len(names))]
}

// Hash is the stable content checksum used for attribution: xxhash64 over the
// NFC-normalized UTF-8 bytes.
func Hash(text string) uint64 {
	return xxhash.Sum64(norm.NFC.Bytes([]byte(text)))
}
