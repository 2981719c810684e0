package pipeline

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/otherjamesbrown/minutes/pkg/actions"
	"github.com/otherjamesbrown/minutes/pkg/archive"
	"github.com/otherjamesbrown/minutes/pkg/chunker"
	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/fsutil"
	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/report"
	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

var errNotConfigured = errors.New("collaborator not configured")

// Transcribe extracts videoPath's audio, recognizes it, and writes
// <basename>_transcript.json to the output directory.
func (p *Pipeline) Transcribe(ctx context.Context, videoPath string) (*Result, error) {
	return p.run(ctx, StageTranscribe, videoPath, func(ctx context.Context, log logging.Logger, res *Result) error {
		if p.audio == nil || p.recognizer == nil {
			return mnerrors.InvalidConfiguration("transcribe: %v", errNotConfigured)
		}
		if err := requireFile(videoPath, "video"); err != nil {
			return err
		}

		tmp, err := os.MkdirTemp("", "minutes-audio-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		var audioPath string
		if err := p.call(ctx, StageTranscribe, "ffmpeg.extract_audio", func(ctx context.Context) error {
			var err error
			audioPath, err = p.audio.ExtractAudio(ctx, videoPath, tmp)
			return err
		}); err != nil {
			return err
		}
		log.Debug("Extracted audio", logging.F("audio", audioPath))

		var t *transcript.Transcript
		if err := p.call(ctx, StageTranscribe, "stt.transcribe", func(ctx context.Context) error {
			var err error
			t, err = p.recognizer.Transcribe(ctx, audioPath)
			return err
		}); err != nil {
			return err
		}
		if err := t.Validate(); err != nil {
			return err
		}

		out := TranscriptPath(videoPath, p.outputDir)
		if err := transcript.WriteFile(out, t); err != nil {
			return err
		}

		res.OutputPath = out
		res.Segments = len(t.Segments)
		return nil
	})
}

// AnalyzeVideo detects on-screen names in videoPath and labels every segment
// of the transcript at transcriptPath with one of them. JSON transcripts are
// rewritten in place; WebVTT input gets a JSON transcript written next to it.
func (p *Pipeline) AnalyzeVideo(ctx context.Context, videoPath, transcriptPath string) (*Result, error) {
	return p.run(ctx, StageAnalyzeVideo, transcriptPath, func(ctx context.Context, log logging.Logger, res *Result) error {
		if p.scanner == nil || p.speakers == nil {
			return mnerrors.InvalidConfiguration("analyze_video: %v", errNotConfigured)
		}
		if err := requireFile(videoPath, "video"); err != nil {
			return err
		}

		t, err := transcript.Load(transcriptPath)
		if err != nil {
			return err
		}

		var names []string
		if err := p.call(ctx, StageAnalyzeVideo, "ocr.detect_names", func(ctx context.Context) error {
			var err error
			names, err = p.scanner.DetectNames(ctx, videoPath)
			return err
		}); err != nil {
			return err
		}
		log.Info("Detected speaker names", logging.F("names", names), logging.F("count", len(names)))

		var labelled []transcript.Segment
		if err := p.call(ctx, StageAnalyzeVideo, "speakers.assign", func(ctx context.Context) error {
			var err error
			labelled, err = p.speakers.Assign(ctx, t.Segments, names)
			return err
		}); err != nil {
			return err
		}

		out := AnalyzedPath(transcriptPath)
		updated := &transcript.Transcript{Segments: labelled, Extra: t.Extra}
		if err := transcript.WriteFile(out, updated); err != nil {
			return err
		}

		res.OutputPath = out
		res.Segments = len(labelled)
		res.Speakers = names
		return nil
	})
}

// Summarize chunks the transcript, schedules its action items, summarizes
// every chunk, and writes <basename>_summary.<ext>.
func (p *Pipeline) Summarize(ctx context.Context, transcriptPath string) (*Result, error) {
	return p.run(ctx, StageSummarize, transcriptPath, func(ctx context.Context, log logging.Logger, res *Result) error {
		if p.summarizer == nil || p.resolver == nil {
			return mnerrors.InvalidConfiguration("summarize: %v", errNotConfigured)
		}
		if !p.format.IsValid() {
			return mnerrors.InvalidConfiguration("unknown report format %q", p.format)
		}

		t, err := transcript.Load(transcriptPath)
		if err != nil {
			return err
		}

		chunks, err := chunker.Chunk(t.Segments, p.chunkSize)
		if err != nil {
			return err
		}
		p.metrics.RecordChunks(len(chunks))
		log.Info("Chunked transcript",
			logging.F("segments", len(t.Segments)),
			logging.F("chunks", len(chunks)))

		// One reference date for every candidate in the run.
		today := p.now()
		candidates := actions.Extract(t.FullText())
		scheduler := actions.NewScheduler(p.resolver,
			actions.WithMetrics(p.metrics),
			actions.WithLogger(log))
		schedule, stats := scheduler.Schedule(ctx, candidates, today)
		log.Info("Scheduled action items",
			logging.F("candidates", len(candidates)),
			logging.F("tomorrow", len(schedule.Tomorrow)),
			logging.F("next_week", len(schedule.NextWeek)),
			logging.F("dropped", stats.Dropped()))

		rep, err := report.Assemble(ctx, chunks, p.summarizer, schedule,
			report.WithTitle(p.title),
			report.WithSummaryBounds(p.maxLength, p.minLength),
			report.WithClock(p.now),
			report.WithLogger(log),
			report.WithMetrics(p.metrics))
		if err != nil {
			return err
		}

		out := SummaryPath(transcriptPath, p.outputDir, p.format)
		renderer := report.RendererFor(p.format)
		if err := fsutil.WriteAtomic(out, func(w io.Writer) error {
			return renderer.Render(rep, w)
		}); err != nil {
			return err
		}

		res.OutputPath = out
		res.Report = rep
		res.Stats = stats

		p.archive(ctx, log, res, transcriptPath)
		return nil
	})
}

// archive stores the report when an archiver is configured. The document is
// already on disk, so failures only warn.
func (p *Pipeline) archive(ctx context.Context, log logging.Logger, res *Result, source string) {
	if p.archiver == nil {
		return
	}
	err := p.archiver.Save(ctx, archive.Record{
		RunID:      res.RunID,
		SourcePath: source,
		Report:     res.Report,
		CreatedAt:  res.Report.GeneratedAt,
	})
	if err != nil {
		log.Warn("Failed to archive report", logging.Err(err))
		return
	}
	log.Debug("Archived report", logging.F("run_id", res.RunID))
}
