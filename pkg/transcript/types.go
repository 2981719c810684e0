// Package transcript provides the in-memory meeting model: recognized speech
// segments, the topic chunks built from them, and the transcript file format.
package transcript

import (
	"encoding/json"
	"sort"
	"strings"
)

// UnknownSpeaker labels segments when no speaker candidates are available.
const UnknownSpeaker = "Unknown"

// Segment is a single time-stamped span of recognized speech.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`

	// Extra holds keys written by the recognizer (id, tokens, avg_logprob, ...)
	// so that rewriting a transcript does not drop them.
	Extra map[string]json.RawMessage `json:"-"`
}

// Duration returns End - Start in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is an ordered sequence of segments plus any top-level keys the
// recognizer emitted alongside them.
type Transcript struct {
	Segments []Segment

	// Extra holds top-level keys other than "segments" (text, language, ...).
	Extra map[string]json.RawMessage
}

// FullText returns every segment's text joined by single spaces.
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// Speakers returns the distinct non-empty speaker labels in first-seen order.
func (t *Transcript) Speakers() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, s := range t.Segments {
		if s.Speaker != "" && !seen[s.Speaker] {
			seen[s.Speaker] = true
			out = append(out, s.Speaker)
		}
	}
	return out
}

// Chunk is a time window aggregating consecutive segments; it is the unit of
// summarization.
type Chunk struct {
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
	Text     string   `json:"text"`
	Speakers []string `json:"speakers"`
	Summary  string   `json:"summary,omitempty"`
}

// StartMinute returns the whole minute the chunk starts in.
func (c Chunk) StartMinute() int {
	return int(c.Start / 60)
}

// EndMinute returns the whole minute the chunk ends in.
func (c Chunk) EndMinute() int {
	return int(c.End / 60)
}

// SpeakerSet accumulates distinct speaker names.
type SpeakerSet map[string]struct{}

// Add inserts name unless it is empty.
func (s SpeakerSet) Add(name string) {
	if name != "" {
		s[name] = struct{}{}
	}
}

// Sorted returns the set members in lexical order.
func (s SpeakerSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
