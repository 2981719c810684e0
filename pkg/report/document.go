package report

import (
	"fmt"
	"strings"

	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

// BlockKind identifies how a document line is typeset.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockHeading
	BlockText
	BlockSection
	BlockSubsection
	BlockBullet
)

// Block is one line of the report document.
type Block struct {
	Kind BlockKind
	Text string
}

// Document lays out r as a flat list of blocks. Every renderer typesets the
// same list:
//
//	<title>
//	Topic N (Minutes X-Y)          (bold, one per chunk)
//	Speakers: a, b
//	Summary: ...
//	Action Items:                  (only when a bucket is non-empty)
//	To Do Tomorrow:                (omitted when empty)
//	- item
//	To Do Next Week:               (omitted when empty)
//	- item
func Document(r *Report) []Block {
	blocks := []Block{{Kind: BlockTitle, Text: r.Title}}

	for i, c := range r.Chunks {
		blocks = append(blocks,
			Block{Kind: BlockHeading, Text: fmt.Sprintf("Topic %d (Minutes %d-%d)", i+1, c.StartMinute(), c.EndMinute())},
			Block{Kind: BlockText, Text: "Speakers: " + speakerList(c)},
			Block{Kind: BlockText, Text: "Summary: " + c.Summary},
		)
	}

	if r.Schedule.Empty() {
		return blocks
	}

	blocks = append(blocks, Block{Kind: BlockSection, Text: "Action Items:"})
	if len(r.Schedule.Tomorrow) > 0 {
		blocks = append(blocks, Block{Kind: BlockSubsection, Text: "To Do Tomorrow:"})
		for _, item := range r.Schedule.Tomorrow {
			blocks = append(blocks, Block{Kind: BlockBullet, Text: item})
		}
	}
	if len(r.Schedule.NextWeek) > 0 {
		blocks = append(blocks, Block{Kind: BlockSubsection, Text: "To Do Next Week:"})
		for _, item := range r.Schedule.NextWeek {
			blocks = append(blocks, Block{Kind: BlockBullet, Text: item})
		}
	}
	return blocks
}

// Lines returns the document as plain text lines, bullets prefixed with "- ".
func Lines(r *Report) []string {
	blocks := Document(r)
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind == BlockBullet {
			lines = append(lines, "- "+b.Text)
			continue
		}
		lines = append(lines, b.Text)
	}
	return lines
}

func speakerList(c transcript.Chunk) string {
	if len(c.Speakers) == 0 {
		return transcript.UnknownSpeaker
	}
	set := transcript.SpeakerSet{}
	for _, s := range c.Speakers {
		set.Add(s)
	}
	return strings.Join(set.Sorted(), ", ")
}
