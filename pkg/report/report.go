// Package report assembles summarized chunks and the action item schedule into
// a meeting report and renders it as a document.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/otherjamesbrown/minutes/pkg/actions"
	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/observability"
	"github.com/otherjamesbrown/minutes/pkg/summarize"
	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

// DefaultTitle heads every report unless configured otherwise.
const DefaultTitle = "Workshop Summary Report"

// Report is a fully summarized meeting.
type Report struct {
	Title       string             `json:"title"`
	Chunks      []transcript.Chunk `json:"chunks"`
	Schedule    actions.Schedule   `json:"schedule"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Renderer writes a report in some document format.
type Renderer interface {
	Render(r *Report, w io.Writer) error
}

type assembleOptions struct {
	title     string
	maxLength int
	minLength int
	now       func() time.Time
	logger    logging.Logger
	metrics   *observability.Metrics
}

// Option configures Assemble.
type Option func(*assembleOptions)

// WithTitle sets the report title.
func WithTitle(title string) Option {
	return func(o *assembleOptions) { o.title = title }
}

// WithSummaryBounds sets the word bounds passed to the summarizer.
func WithSummaryBounds(maxLength, minLength int) Option {
	return func(o *assembleOptions) {
		o.maxLength = maxLength
		o.minLength = minLength
	}
}

// WithClock overrides the timestamp source for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(o *assembleOptions) { o.now = now }
}

// WithLogger sets the logger for per-chunk progress.
func WithLogger(l logging.Logger) Option {
	return func(o *assembleOptions) { o.logger = l }
}

// WithMetrics records summary outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *assembleOptions) { o.metrics = m }
}

// Assemble summarizes each chunk in order and combines the results with
// schedule. The first summarizer failure aborts assembly with an error that
// matches ErrExternalService; no partial report is returned. chunks is not
// modified.
func Assemble(ctx context.Context, chunks []transcript.Chunk, summarizer summarize.Summarizer, schedule actions.Schedule, opts ...Option) (*Report, error) {
	o := assembleOptions{
		title:     DefaultTitle,
		maxLength: summarize.DefaultMaxLength,
		minLength: summarize.DefaultMinLength,
		now:       time.Now,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	out := make([]transcript.Chunk, len(chunks))
	for i, c := range chunks {
		summary, err := summarizer.Summarize(ctx, c.Text, o.maxLength, o.minLength)
		if err != nil {
			o.metrics.RecordSummary(observability.StatusFailure)
			return nil, mnerrors.External("summarize", fmt.Errorf("summarizing topic %d: %w", i+1, err))
		}
		o.metrics.RecordSummary(observability.StatusSuccess)
		o.logger.Debug("summarized topic",
			logging.F("topic", i+1),
			logging.F("of", len(chunks)),
			logging.F("chars", len(summary)),
		)

		out[i] = c
		out[i].Speakers = append([]string(nil), c.Speakers...)
		out[i].Summary = summary
	}

	if schedule.Tomorrow == nil {
		schedule.Tomorrow = []string{}
	}
	if schedule.NextWeek == nil {
		schedule.NextWeek = []string{}
	}

	return &Report{
		Title:       o.title,
		Chunks:      out,
		Schedule:    schedule,
		GeneratedAt: o.now(),
	}, nil
}
