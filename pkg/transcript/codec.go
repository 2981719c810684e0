package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/fsutil"
)

// Keys every segment object must carry.
var requiredSegmentKeys = []string{"start", "end", "text"}

// Decode reads a transcript document: an object with a "segments" array of
// {start, end, text, speaker?} objects. Structural problems are reported as
// ErrInvalidTranscript.
func Decode(r io.Reader) (*Transcript, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, mnerrors.InvalidTranscript("malformed JSON: %v", err)
	}
	if doc == nil {
		return nil, mnerrors.InvalidTranscript("document is not an object")
	}

	rawSegments, ok := doc["segments"]
	if !ok || isNull(rawSegments) {
		return nil, mnerrors.InvalidTranscript(`missing "segments"`)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawSegments, &items); err != nil {
		return nil, mnerrors.InvalidTranscript(`"segments" is not an array`)
	}

	t := &Transcript{Segments: make([]Segment, 0, len(items))}
	for i, item := range items {
		seg, err := decodeSegment(i, item)
		if err != nil {
			return nil, err
		}
		t.Segments = append(t.Segments, seg)
	}

	delete(doc, "segments")
	if len(doc) > 0 {
		t.Extra = doc
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeSegment(i int, data json.RawMessage) (Segment, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Segment{}, mnerrors.InvalidTranscript("segment %d is not an object", i)
	}

	for _, key := range requiredSegmentKeys {
		if v, ok := raw[key]; !ok || isNull(v) {
			return Segment{}, mnerrors.InvalidTranscript("segment %d missing %q", i, key)
		}
	}

	var seg Segment
	if err := json.Unmarshal(raw["start"], &seg.Start); err != nil {
		return Segment{}, mnerrors.InvalidTranscript(`segment %d: "start" is not a number`, i)
	}
	if err := json.Unmarshal(raw["end"], &seg.End); err != nil {
		return Segment{}, mnerrors.InvalidTranscript(`segment %d: "end" is not a number`, i)
	}
	if err := json.Unmarshal(raw["text"], &seg.Text); err != nil {
		return Segment{}, mnerrors.InvalidTranscript(`segment %d: "text" is not a string`, i)
	}
	if v, ok := raw["speaker"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &seg.Speaker); err != nil {
			return Segment{}, mnerrors.InvalidTranscript(`segment %d: "speaker" is not a string`, i)
		}
	}

	for _, key := range []string{"start", "end", "text", "speaker"} {
		delete(raw, key)
	}
	if len(raw) > 0 {
		seg.Extra = raw
	}
	return seg, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Validate checks per-segment invariants. Ordering is left to consumers that
// depend on it.
func (t *Transcript) Validate() error {
	for i, s := range t.Segments {
		if s.End < s.Start {
			return mnerrors.InvalidTranscript("segment %d ends (%.3f) before it starts (%.3f)", i, s.End, s.Start)
		}
	}
	return nil
}

// MarshalJSON writes start, end, text and speaker in that order, followed by
// any preserved recognizer keys sorted by name.
func (s Segment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(key string, v any) error {
		b, err := marshalNoEscape(v)
		if err != nil {
			return err
		}
		k, err := marshalNoEscape(key)
		if err != nil {
			return err
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(b)
		return nil
	}

	if err := write("start", s.Start); err != nil {
		return nil, err
	}
	if err := write("end", s.End); err != nil {
		return nil, err
	}
	if err := write("text", s.Text); err != nil {
		return nil, err
	}
	if s.Speaker != "" {
		if err := write("speaker", s.Speaker); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		switch k {
		case "start", "end", "text", "speaker":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, s.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON writes {"segments": [...]} plus preserved top-level keys.
func (t Transcript) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(t.Extra)+1)
	for k, v := range t.Extra {
		out[k] = v
	}
	segments := t.Segments
	if segments == nil {
		segments = []Segment{}
	}
	b, err := marshalNoEscape(segments)
	if err != nil {
		return nil, err
	}
	out["segments"] = b
	return marshalNoEscape(out)
}

// marshalNoEscape marshals v without HTML-escaping so transcript text stays
// readable when rewritten.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Encode writes t as indented JSON.
func Encode(w io.Writer, t *Transcript) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// Load reads a transcript from path. Files ending in .vtt are parsed as WebVTT;
// everything else is decoded as the JSON transcript format.
func Load(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".vtt") {
		return ParseVTT(f)
	}
	return Decode(f)
}

// WriteFile atomically replaces path with the JSON encoding of t.
func WriteFile(path string, t *Transcript) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, t)
	})
}
