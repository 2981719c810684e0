// Package pipeline runs the transcribe, analyze_video and summarize stages
// end to end: it wires collaborators together, bounds each stage with a
// timeout, and reports every run through logs, spans, metrics and events.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/minutes/pkg/actions"
	"github.com/otherjamesbrown/minutes/pkg/archive"
	"github.com/otherjamesbrown/minutes/pkg/chunker"
	"github.com/otherjamesbrown/minutes/pkg/dates"
	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/events"
	"github.com/otherjamesbrown/minutes/pkg/fsutil"
	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/observability"
	"github.com/otherjamesbrown/minutes/pkg/ocr"
	"github.com/otherjamesbrown/minutes/pkg/report"
	"github.com/otherjamesbrown/minutes/pkg/speakers"
	"github.com/otherjamesbrown/minutes/pkg/stt"
	"github.com/otherjamesbrown/minutes/pkg/summarize"
)

// Stage names, used in logs, spans, metrics, events and error messages.
const (
	StageTranscribe   = "transcribe"
	StageAnalyzeVideo = "analyze_video"
	StageSummarize    = "summarize"
)

// File name suffixes for stage outputs.
const (
	TranscriptSuffix = "_transcript.json"
	SummarySuffix    = "_summary"
)

// AudioExtractor produces a speech-recognition-ready audio file from a video.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, dir string) (string, error)
}

// Pipeline runs stages against its collaborators. Collaborators a stage does
// not use may be nil.
type Pipeline struct {
	audio      AudioExtractor
	recognizer stt.Recognizer
	scanner    ocr.Scanner
	speakers   speakers.Source
	summarizer summarize.Summarizer
	resolver   dates.Resolver
	archiver   archive.Archiver
	events     events.Sink

	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  logging.Logger

	chunkSize   float64
	maxLength   int
	minLength   int
	title       string
	format      report.Format
	outputDir   string
	timeout     time.Duration
	metricsFile string

	now      func() time.Time
	newRunID func() string
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithAudioExtractor sets the audio extractor used by transcribe.
func WithAudioExtractor(a AudioExtractor) Option {
	return func(p *Pipeline) { p.audio = a }
}

// WithRecognizer sets the speech recognizer used by transcribe.
func WithRecognizer(r stt.Recognizer) Option {
	return func(p *Pipeline) { p.recognizer = r }
}

// WithScanner sets the OCR name scanner used by analyze_video.
func WithScanner(s ocr.Scanner) Option {
	return func(p *Pipeline) { p.scanner = s }
}

// WithSpeakerSource sets the speaker assigner used by analyze_video.
func WithSpeakerSource(s speakers.Source) Option {
	return func(p *Pipeline) { p.speakers = s }
}

// WithSummarizer sets the summarizer used by summarize.
func WithSummarizer(s summarize.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithResolver sets the date resolver used to schedule action items.
func WithResolver(r dates.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithArchiver stores each finished report. Archive failures are logged only.
func WithArchiver(a archive.Archiver) Option {
	return func(p *Pipeline) { p.archiver = a }
}

// WithEventSink publishes stage lifecycle events. Publish failures are logged only.
func WithEventSink(s events.Sink) Option {
	return func(p *Pipeline) { p.events = s }
}

// WithMetrics records run metrics and, when path is non-empty, flushes them
// to a Prometheus textfile after every stage.
func WithMetrics(m *observability.Metrics, path string) Option {
	return func(p *Pipeline) {
		p.metrics = m
		p.metricsFile = path
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithChunkSize sets the topic window in seconds.
func WithChunkSize(seconds float64) Option {
	return func(p *Pipeline) { p.chunkSize = seconds }
}

// WithSummaryBounds sets the word bounds passed to the summarizer.
func WithSummaryBounds(maxLength, minLength int) Option {
	return func(p *Pipeline) {
		p.maxLength = maxLength
		p.minLength = minLength
	}
}

// WithReportTitle sets the report title.
func WithReportTitle(title string) Option {
	return func(p *Pipeline) { p.title = title }
}

// WithFormat sets the summary document format.
func WithFormat(f report.Format) Option {
	return func(p *Pipeline) { p.format = f }
}

// WithOutputDir overrides where stage outputs are written. Transcribe
// defaults to the working directory; summarize defaults to the transcript's
// directory.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) { p.outputDir = dir }
}

// WithTimeout bounds each stage, including every collaborator call.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithClock overrides the source of "today" and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(next func() string) Option {
	return func(p *Pipeline) { p.newRunID = next }
}

// New creates a pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		speakers:  speakers.NewHeuristicHashAssigner(),
		events:    events.NopSink{},
		tracer:    observability.NewTracer(),
		logger:    logging.NewNopLogger(),
		chunkSize: chunker.DefaultChunkSize,
		maxLength: summarize.DefaultMaxLength,
		minLength: summarize.DefaultMinLength,
		title:     report.DefaultTitle,
		format:    report.FormatPDF,
		now:       time.Now,
		newRunID:  func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.With(logging.F("component", "pipeline"))
	return p
}

// Result describes a completed stage.
type Result struct {
	RunID      string
	Stage      string
	OutputPath string
	Duration   time.Duration

	// Set by transcribe and analyze_video.
	Segments int
	// Set by analyze_video.
	Speakers []string
	// Set by summarize.
	Report *report.Report
	Stats  actions.Stats
}

// stageFunc does the stage's work and fills in res.
type stageFunc func(ctx context.Context, log logging.Logger, res *Result) error

// run wraps a stage with its run ID, timeout, span, metrics and events. The
// returned error, if any, is a *mnerrors.StageError.
func (p *Pipeline) run(ctx context.Context, stage, input string, fn stageFunc) (*Result, error) {
	res := &Result{RunID: p.newRunID(), Stage: stage}
	started := p.now()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	ctx = logging.ContextWithRunID(ctx, res.RunID)
	ctx, span := p.tracer.StartStageSpan(ctx, stage, res.RunID)

	log := p.logger.WithContext(ctx).With(logging.F("stage", stage))
	log.Info("Stage started", logging.F("input", input))
	p.publishStarted(ctx, log, res.RunID, stage, input)

	err := fn(ctx, log, res)
	res.Duration = p.now().Sub(started)
	p.metrics.RecordStageDuration(stage, res.Duration.Seconds())

	var stageErr *mnerrors.StageError
	code := ""
	if err != nil {
		stageErr = mnerrors.ClassifyError(err, stage)
		if stageErr.Code == mnerrors.ErrTimeout {
			stageErr.Duration = res.Duration
		}
		code = string(stageErr.Code)
		log.Error("Stage failed",
			logging.Err(err),
			logging.F("error_code", code),
			logging.F("duration", res.Duration))
	} else {
		log.Info("Stage completed",
			logging.F("output", res.OutputPath),
			logging.F("duration", res.Duration))
	}

	observability.EndSpan(span, err, code)
	p.publishCompleted(ctx, log, events.StageCompletedParams{
		RunID:      res.RunID,
		Stage:      stage,
		InputPath:  input,
		OutputPath: res.OutputPath,
		StartedAt:  started,
		Err:        err,
		ErrorCode:  code,
	})
	p.flushMetrics(log)

	if stageErr != nil {
		return res, stageErr
	}
	return res, nil
}

func (p *Pipeline) publishStarted(ctx context.Context, log logging.Logger, runID, stage, input string) {
	if err := p.events.PublishStageStarted(context.WithoutCancel(ctx), runID, stage, input); err != nil {
		log.Warn("Failed to publish stage_started event", logging.Err(err))
	}
}

func (p *Pipeline) publishCompleted(ctx context.Context, log logging.Logger, params events.StageCompletedParams) {
	if err := p.events.PublishStageCompleted(context.WithoutCancel(ctx), params); err != nil {
		log.Warn("Failed to publish stage_completed event", logging.Err(err))
	}
}

func (p *Pipeline) flushMetrics(log logging.Logger) {
	if p.metricsFile == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.metricsFile); err != nil {
		log.Warn("Failed to write metrics textfile", logging.Err(err), logging.F("path", p.metricsFile))
	}
}

// call runs a collaborator inside a span and classifies its failure as an
// external-service error for stage.
func (p *Pipeline) call(ctx context.Context, stage, name string, fn func(ctx context.Context) error) error {
	ctx, span := p.tracer.StartCallSpan(ctx, name)
	err := fn(ctx)
	if err != nil {
		err = mnerrors.External(stage, fmt.Errorf("%s: %w", name, err))
		observability.EndSpan(span, err, string(mnerrors.CodeOf(err)))
		return err
	}
	observability.EndSpan(span, nil, "")
	return nil
}

func requireFile(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %s is a directory", what, path)
	}
	return nil
}

// TranscriptPath returns where transcribe writes the transcript for videoPath.
func TranscriptPath(videoPath, outputDir string) string {
	if outputDir == "" {
		outputDir = "."
	}
	return filepath.Join(outputDir, fsutil.Basename(videoPath, "")+TranscriptSuffix)
}

// AnalyzedPath returns where analyze_video writes the speaker-labelled
// transcript: in place for JSON input, next to the file for WebVTT input.
func AnalyzedPath(transcriptPath string) string {
	if strings.EqualFold(filepath.Ext(transcriptPath), ".vtt") {
		return filepath.Join(filepath.Dir(transcriptPath), fsutil.Basename(transcriptPath, "")+TranscriptSuffix)
	}
	return transcriptPath
}

// SummaryPath returns where summarize writes the report for transcriptPath.
func SummaryPath(transcriptPath, outputDir string, f report.Format) string {
	if outputDir == "" {
		outputDir = filepath.Dir(transcriptPath)
	}
	name := fsutil.Basename(transcriptPath, TranscriptSuffix) + SummarySuffix + "." + f.Extension()
	return filepath.Join(outputDir, name)
}
