// Package actions finds action-item phrases in meeting text and schedules
// them into due-date buckets.
package actions

import (
	"regexp"
	"strings"
)

// cueGroups is the phrase table. Groups are evaluated in order and every
// extraction call site shares it.
var cueGroups = [][]string{
	{"we need to", "let's", "lets", "you should", "please", "action item", "I will", "can you", "make sure to"},
	{"todo", "to-do", "next step", "follow up"},
}

var cuePatterns = compileCues(cueGroups)

func compileCues(groups [][]string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(groups))
	for _, cues := range groups {
		quoted := make([]string, len(cues))
		for i, c := range cues {
			quoted[i] = regexp.QuoteMeta(c)
		}
		// Cue on word boundaries, then at least one character up to the
		// nearest sentence terminator on the same line.
		expr := `(?i)\b(?:` + strings.Join(quoted, "|") + `)\b.+?[.?!]`
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}

// Extract returns candidate action-item phrases from text: all matches of the
// first cue group in order of position, then all matches of the second.
// A phrase matched by both groups appears twice.
func Extract(text string) []string {
	candidates := make([]string, 0)
	for _, re := range cuePatterns {
		for _, m := range re.FindAllString(text, -1) {
			candidates = append(candidates, strings.TrimSpace(m))
		}
	}
	return candidates
}
