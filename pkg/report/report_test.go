package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minutes/pkg/actions"
	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/observability"
	"github.com/otherjamesbrown/minutes/pkg/summarize"
	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func sampleChunks() []transcript.Chunk {
	return []transcript.Chunk{
		{Start: 0, End: 125, Text: "A B", Speakers: []string{"Amy Pond", "Rory Williams"}},
		{Start: 125, End: 140, Text: "C"},
	}
}

func echoSummarizer(t *testing.T) summarize.Summarizer {
	return summarize.Func(func(ctx context.Context, text string, maxLength, minLength int) (string, error) {
		assert.Equal(t, 150, maxLength)
		assert.Equal(t, 60, minLength)
		return "about " + text, nil
	})
}

func TestAssemble(t *testing.T) {
	chunks := sampleChunks()
	sched := actions.Schedule{Tomorrow: []string{"let's finish this tomorrow."}}
	m := observability.NewMetrics()

	r, err := Assemble(context.Background(), chunks, echoSummarizer(t), sched,
		WithClock(func() time.Time { return fixedNow }), WithMetrics(m))
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, r.Title)
	assert.Equal(t, fixedNow, r.GeneratedAt)
	require.Len(t, r.Chunks, 2)
	assert.Equal(t, "about A B", r.Chunks[0].Summary)
	assert.Equal(t, "about C", r.Chunks[1].Summary)
	assert.Equal(t, []string{"let's finish this tomorrow."}, r.Schedule.Tomorrow)
	assert.NotNil(t, r.Schedule.NextWeek)

	assert.Empty(t, chunks[0].Summary, "input chunks are not modified")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SummariesTotal.WithLabelValues(observability.StatusSuccess)))
}

func TestAssemble_SummarizerFailure(t *testing.T) {
	boom := errors.New("model overloaded")
	calls := 0
	s := summarize.Func(func(ctx context.Context, text string, maxLength, minLength int) (string, error) {
		calls++
		if calls == 2 {
			return "", boom
		}
		return "ok", nil
	})
	chunks := append(sampleChunks(), transcript.Chunk{Start: 140, End: 200, Text: "D"})

	r, err := Assemble(context.Background(), chunks, s, actions.NewSchedule())
	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, mnerrors.ErrExternalService)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "topic 2")
	assert.Equal(t, 2, calls, "assembly stops at the first failure")
}

func TestAssemble_Options(t *testing.T) {
	s := summarize.Func(func(ctx context.Context, text string, maxLength, minLength int) (string, error) {
		assert.Equal(t, 80, maxLength)
		assert.Equal(t, 20, minLength)
		return "s", nil
	})

	r, err := Assemble(context.Background(), sampleChunks(), s, actions.NewSchedule(),
		WithTitle("Design Review"), WithSummaryBounds(80, 20))
	require.NoError(t, err)
	assert.Equal(t, "Design Review", r.Title)
}

func TestAssemble_NoChunks(t *testing.T) {
	r, err := Assemble(context.Background(), nil, echoSummarizer(t), actions.Schedule{})
	require.NoError(t, err)
	assert.Empty(t, r.Chunks)
	assert.NotNil(t, r.Schedule.Tomorrow)
}

func sampleReport() *Report {
	return &Report{
		Title: DefaultTitle,
		Chunks: []transcript.Chunk{
			{Start: 0, End: 125, Speakers: []string{"Rory Williams", "Amy Pond"}, Summary: "Kickoff."},
			{Start: 125, End: 140, Summary: "Wrap up."},
		},
		Schedule: actions.Schedule{
			Tomorrow: []string{"let's finish this tomorrow."},
			NextWeek: []string{"follow up next Friday."},
		},
		GeneratedAt: fixedNow,
	}
}

func TestLines(t *testing.T) {
	want := []string{
		"Workshop Summary Report",
		"Topic 1 (Minutes 0-2)",
		"Speakers: Amy Pond, Rory Williams",
		"Summary: Kickoff.",
		"Topic 2 (Minutes 2-2)",
		"Speakers: Unknown",
		"Summary: Wrap up.",
		"Action Items:",
		"To Do Tomorrow:",
		"- let's finish this tomorrow.",
		"To Do Next Week:",
		"- follow up next Friday.",
	}
	assert.Equal(t, want, Lines(sampleReport()))
}

func TestLines_EmptyBucketsOmitted(t *testing.T) {
	r := sampleReport()
	r.Schedule.Tomorrow = nil
	lines := Lines(r)
	assert.NotContains(t, lines, "To Do Tomorrow:")
	assert.Contains(t, lines, "To Do Next Week:")

	r.Schedule.NextWeek = []string{}
	lines = Lines(r)
	assert.NotContains(t, lines, "Action Items:")
	assert.Equal(t, "Summary: Wrap up.", lines[len(lines)-1])
}

func TestDocument_HeadingIsBold(t *testing.T) {
	blocks := Document(sampleReport())
	assert.Equal(t, BlockTitle, blocks[0].Kind)
	assert.Equal(t, BlockHeading, blocks[1].Kind)
	assert.Equal(t, BlockBullet, blocks[len(blocks)-1].Kind)
}

func TestPDFRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := sampleReport()
	r.Chunks[0].Summary = "Café budget approved."

	require.NoError(t, (&PDFRenderer{Compress: false}).Render(r, &buf))

	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, out, "Topic 1 \\(Minutes 0-2\\)")
	assert.Contains(t, out, "To Do Next Week:")
	assert.Contains(t, out, "%%EOF")
}

func TestPDFRenderer_Compressed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPDFRenderer().Render(sampleReport(), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := sampleReport()
	r.Chunks[1].Summary = "Use *stars* and snake_case."
	require.NoError(t, MarkdownRenderer{}.Render(r, &buf))

	out := buf.String()
	assert.Contains(t, out, "# Workshop Summary Report\n")
	assert.Contains(t, out, "**Topic 1 (Minutes 0-2)**")
	assert.Contains(t, out, "Speakers: Amy Pond, Rory Williams")
	assert.Contains(t, out, `Use \*stars\* and snake\_case.`)
	assert.Contains(t, out, "## Action Items:")
	assert.Contains(t, out, "### To Do Tomorrow:")
	assert.Contains(t, out, "- let's finish this tomorrow.\n")
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextRenderer{}.Render(sampleReport(), &buf))
	assert.Contains(t, buf.String(), "Speakers: Unknown\n")
	assert.Contains(t, buf.String(), "- follow up next Friday.\n")
}

func TestFormat(t *testing.T) {
	assert.True(t, FormatPDF.IsValid())
	assert.True(t, FormatMarkdown.IsValid())
	assert.False(t, Format("docx").IsValid())
	assert.Equal(t, "md", FormatMarkdown.Extension())
	assert.IsType(t, &PDFRenderer{}, RendererFor(FormatPDF))
	assert.IsType(t, MarkdownRenderer{}, RendererFor(FormatMarkdown))
	assert.IsType(t, TextRenderer{}, RendererFor(FormatText))
}
