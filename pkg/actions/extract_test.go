package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single cue",
			text: "Good meeting. We need to update the roadmap by Friday. Thanks all.",
			want: []string{"We need to update the roadmap by Friday."},
		},
		{
			name: "first group before second regardless of position",
			text: "Follow up with legal tomorrow. Please send the deck!",
			want: []string{"Please send the deck!", "Follow up with legal tomorrow."},
		},
		{
			name: "duplicates across groups are kept",
			text: "Please follow up on pricing next week.",
			want: []string{"Please follow up on pricing next week.", "follow up on pricing next week."},
		},
		{
			name: "case insensitive and question terminator",
			text: "CAN YOU check the logs? i will handle billing.",
			want: []string{"CAN YOU check the logs?", "i will handle billing."},
		},
		{
			name: "apostrophe cue and hyphenated cue",
			text: "Let's sync on Monday. To-do: rotate the keys.",
			want: []string{"Let's sync on Monday.", "To-do: rotate the keys."},
		},
		{
			name: "word boundaries",
			text: "I was pleased with the outcome. The todolist app shipped.",
			want: []string{},
		},
		{
			name: "cue needs text before the terminator",
			text: "todo.",
			want: []string{},
		},
		{
			name: "terminator right after cue runs on to the next one",
			text: "Please. Send it tomorrow.",
			want: []string{"Please. Send it tomorrow."},
		},
		{
			name: "match does not cross a line break",
			text: "Please. Send it tomorrow. We need to\nfix it tomorrow! todo.",
			want: []string{"Please. Send it tomorrow."},
		},
		{
			name: "no terminator",
			text: "we need to ship this",
			want: []string{},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
		{
			name: "multiple matches keep position order",
			text: "Make sure to lock the branch. Then you should tag it. Next step is release.",
			want: []string{
				"Make sure to lock the branch.",
				"you should tag it.",
				"Next step is release.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	text := "Let's finish this tomorrow. Follow up next Friday."
	assert.Equal(t, Extract(text), Extract(text))
}
