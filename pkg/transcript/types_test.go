package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscript_FullText(t *testing.T) {
	tr := &Transcript{Segments: []Segment{{Text: "one."}, {Text: "two"}, {Text: "three!"}}}
	assert.Equal(t, "one. two three!", tr.FullText())
	assert.Equal(t, "", (&Transcript{}).FullText())
}

func TestTranscript_Speakers(t *testing.T) {
	tr := &Transcript{Segments: []Segment{
		{Speaker: "Bob Stone"}, {Speaker: ""}, {Speaker: "Amy Pond"}, {Speaker: "Bob Stone"},
	}}
	assert.Equal(t, []string{"Bob Stone", "Amy Pond"}, tr.Speakers())
}

func TestChunk_Minutes(t *testing.T) {
	c := Chunk{Start: 119.9, End: 245}
	assert.Equal(t, 1, c.StartMinute())
	assert.Equal(t, 4, c.EndMinute())
}

func TestSegment_Duration(t *testing.T) {
	assert.Equal(t, 2.5, Segment{Start: 1, End: 3.5}.Duration())
}

func TestSpeakerSet(t *testing.T) {
	s := SpeakerSet{}
	s.Add("Zed Quinn")
	s.Add("")
	s.Add("Amy Pond")
	s.Add("Zed Quinn")
	assert.Equal(t, []string{"Amy Pond", "Zed Quinn"}, s.Sorted())
	assert.Empty(t, SpeakerSet{}.Sorted())
}
