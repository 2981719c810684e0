package transcript

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// VTT parsing regular expressions
var (
	// Matches a Webex cue header: 1 "Speaker Name" (speaker_id) or just: 1 "" (0)
	vttCueHeaderRegex = regexp.MustCompile(`^\d+\s+"([^"]*)"(?:\s+\((\d+)\))?`)

	// Matches a timing line: 00:00:05.579 --> 00:00:06.858, hours optional.
	vttTimingRegex = regexp.MustCompile(`^((?:\d+:)?\d{2}:\d{2}\.\d{3})\s+-->\s+((?:\d+:)?\d{2}:\d{2}\.\d{3})`)

	// Matches a voice span: <v Speaker Name>text
	vttVoiceRegex = regexp.MustCompile(`^<v(?:\.[^\s>]*)?\s+([^>]+)>(.*)$`)

	vttTagRegex = regexp.MustCompile(`</?[^>]+>`)
)

// ParseVTT parses a WebVTT transcript into segments. Speaker names come from
// Webex-style cue headers or <v> voice spans. Cues without a timing line are
// dropped.
func ParseVTT(r io.Reader) (*Transcript, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	t := &Transcript{Segments: make([]Segment, 0)}

	var current *Segment
	var pendingSpeaker string
	flush := func() {
		if current != nil && current.Text != "" {
			t.Segments = append(t.Segments, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))

		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") {
			continue
		}

		if m := vttCueHeaderRegex.FindStringSubmatch(line); m != nil && current == nil {
			pendingSpeaker = m[1]
			continue
		}

		if m := vttTimingRegex.FindStringSubmatch(line); m != nil {
			flush()
			current = &Segment{
				Start:   parseVTTTimestamp(m[1]),
				End:     parseVTTTimestamp(m[2]),
				Speaker: pendingSpeaker,
			}
			pendingSpeaker = ""
			continue
		}

		if current == nil {
			// Numeric cue identifiers and other stray lines.
			continue
		}

		if m := vttVoiceRegex.FindStringSubmatch(line); m != nil {
			current.Speaker = strings.TrimSpace(m[1])
			line = m[2]
		}
		line = strings.TrimSpace(vttTagRegex.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		if current.Text != "" {
			current.Text += " "
		}
		current.Text += line
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// parseVTTTimestamp parses HH:MM:SS.mmm or MM:SS.mmm into seconds.
func parseVTTTimestamp(ts string) float64 {
	parts := strings.Split(ts, ":")
	var hours, minutes int
	var secPart string
	switch len(parts) {
	case 3:
		hours, _ = strconv.Atoi(parts[0])
		minutes, _ = strconv.Atoi(parts[1])
		secPart = parts[2]
	case 2:
		minutes, _ = strconv.Atoi(parts[0])
		secPart = parts[1]
	default:
		return 0
	}

	seconds, _ := strconv.ParseFloat(secPart, 64)
	return float64(hours*3600+minutes*60) + seconds
}
