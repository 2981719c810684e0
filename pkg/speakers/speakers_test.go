package speakers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

func sampleSegments() []transcript.Segment {
	return []transcript.Segment{
		{Start: 0, End: 2, Text: "hello everyone"},
		{Start: 2, End: 5, Text: "let's get started", Speaker: "Old Label"},
		{Start: 5, End: 9, Text: "café menu review"},
	}
}

func TestAssign_NoNames(t *testing.T) {
	out, err := NewHeuristicHashAssigner().Assign(context.Background(), sampleSegments(), nil)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, s := range out {
		assert.Equal(t, "Unknown", s.Speaker)
	}
}

func TestAssign_PicksFromNames(t *testing.T) {
	names := []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"}
	in := sampleSegments()

	out, err := NewHeuristicHashAssigner().Assign(context.Background(), in, names)
	require.NoError(t, err)

	for i, s := range out {
		assert.Contains(t, names, s.Speaker)
		assert.Equal(t, names[Hash(in[i].Text)%3], s.Speaker)
		assert.Equal(t, in[i].Text, s.Text)
		assert.Equal(t, in[i].Start, s.Start)
	}
}

func TestAssign_DoesNotMutateInput(t *testing.T) {
	in := sampleSegments()
	_, err := NewHeuristicHashAssigner().Assign(context.Background(), in, []string{"Ada Lovelace"})
	require.NoError(t, err)

	assert.Empty(t, in[0].Speaker)
	assert.Equal(t, "Old Label", in[1].Speaker)
}

func TestAssign_Deterministic(t *testing.T) {
	names := []string{"Ada Lovelace", "Alan Turing", "Grace Hopper", "Linus Pauling"}
	a, err := NewHeuristicHashAssigner().Assign(context.Background(), sampleSegments(), names)
	require.NoError(t, err)
	b, err := NewHeuristicHashAssigner().Assign(context.Background(), sampleSegments(), names)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAssign_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHeuristicHashAssigner().Assign(ctx, sampleSegments(), []string{"Ada Lovelace"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssign_EmptySegments(t *testing.T) {
	out, err := NewHeuristicHashAssigner().Assign(context.Background(), nil, []string{"Ada Lovelace"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHash_NormalizesUnicode(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	assert.NotEqual(t, composed, decomposed)
	assert.Equal(t, Hash(composed), Hash(decomposed))
}

func TestHash_KnownValue(t *testing.T) {
	// xxhash64 of the empty input with seed 0.
	assert.Equal(t, uint64(0xef46db3751d8e999), Hash(""))
}

func TestPick_SingleName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Pick("anything at all", []string{"Ada Lovelace"}))
}
