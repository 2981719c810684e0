package cmd

import (
	"context"
	"time"

	"github.com/otherjamesbrown/minutes/config"
	"github.com/otherjamesbrown/minutes/credentials"
	"github.com/otherjamesbrown/minutes/pkg/archive"
	"github.com/otherjamesbrown/minutes/pkg/dates"
	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/events"
	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/media"
	"github.com/otherjamesbrown/minutes/pkg/observability"
	"github.com/otherjamesbrown/minutes/pkg/ocr"
	"github.com/otherjamesbrown/minutes/pkg/pipeline"
	"github.com/otherjamesbrown/minutes/pkg/speakers"
	"github.com/otherjamesbrown/minutes/pkg/stt"
	"github.com/otherjamesbrown/minutes/pkg/summarize"
)

// connectTimeout bounds each dial to an optional service.
const connectTimeout = 5 * time.Second

// summarizerRetries is passed to the OpenAI client; a failure after that
// aborts the stage.
const summarizerRetries = 2

// apiKeyLookup resolves the OpenAI key. Tests replace it.
var apiKeyLookup = func() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	key, _, err := credentials.NewStore(dir).APIKey()
	return key, err
}

// BuildPipeline wires cfg into a pipeline for stage. The summary cache, the
// report archive and event publishing are optional: when one cannot be
// reached the stage runs without it and a warning is logged.
func BuildPipeline(ctx context.Context, cfg *config.Config, stage string, logger logging.Logger, extra ...pipeline.Option) (*pipeline.Pipeline, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	metrics := observability.NewMetrics()
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics, cfg.MetricsFile),
		pipeline.WithTimeout(cfg.Timeout),
		pipeline.WithChunkSize(cfg.ChunkSize),
		pipeline.WithSummaryBounds(cfg.Summary.MaxLength, cfg.Summary.MinLength),
		pipeline.WithReportTitle(cfg.ReportTitle),
	}

	switch stage {
	case pipeline.StageTranscribe:
		rec, err := newRecognizer(cfg, logger)
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts,
			pipeline.WithAudioExtractor(media.NewFFmpeg(cfg.FFmpegPath, logger)),
			pipeline.WithRecognizer(rec))

	case pipeline.StageAnalyzeVideo:
		scanner := ocr.NewTesseractScanner(media.NewFFmpeg(cfg.FFmpegPath, logger), ocr.TesseractConfig{
			Path:       cfg.OCR.TesseractPath,
			Interval:   cfg.OCR.FrameInterval,
			Similarity: cfg.OCR.Similarity,
		}, logger)
		opts = append(opts,
			pipeline.WithScanner(scanner),
			pipeline.WithSpeakerSource(speakers.NewHeuristicHashAssigner()))

	case pipeline.StageSummarize:
		s, closeCache, err := newSummarizer(ctx, cfg, logger, metrics)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, closeCache)
		opts = append(opts,
			pipeline.WithSummarizer(s),
			pipeline.WithResolver(dates.NewWhenResolver()))

		if cfg.Archive.Enabled() {
			if a, closeArchive := newArchiver(ctx, cfg, logger, metrics); a != nil {
				closers = append(closers, closeArchive)
				opts = append(opts, pipeline.WithArchiver(a))
			}
		}

	default:
		return nil, cleanup, mnerrors.InvalidConfiguration("unknown stage %q", stage)
	}

	if cfg.Events.Enabled {
		if pub := newEventPublisher(ctx, cfg, logger); pub != nil {
			closers = append(closers, func() { _ = pub.Close() })
			opts = append(opts, pipeline.WithEventSink(pub))
		}
	}

	return pipeline.New(append(opts, extra...)...), cleanup, nil
}

func openAIKey() (string, error) {
	key, err := apiKeyLookup()
	if err != nil {
		return "", mnerrors.InvalidConfiguration("OpenAI API key: %v (run 'minutes auth login' or set %s)", err, credentials.EnvAPIKey)
	}
	return key, nil
}

func newRecognizer(cfg *config.Config, logger logging.Logger) (stt.Recognizer, error) {
	switch cfg.Transcription.Backend {
	case config.BackendLocal:
		return stt.NewWhisperCLIRecognizer(stt.WhisperConfig{
			Path:     cfg.Transcription.WhisperPath,
			Model:    cfg.TranscriptionModel(),
			Language: cfg.Transcription.Language,
		}, logger), nil

	case config.BackendOpenAI, "":
		key, err := openAIKey()
		if err != nil {
			return nil, err
		}
		rec, err := stt.NewOpenAIRecognizer(stt.OpenAIConfig{
			APIKey:   key,
			Model:    cfg.TranscriptionModel(),
			Language: cfg.Transcription.Language,
			BaseURL:  cfg.Transcription.BaseURL,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, mnerrors.InvalidConfiguration("speech recognizer: %v", err)
		}
		return rec, nil
	}
	return nil, mnerrors.InvalidConfiguration("unknown transcription backend %q", cfg.Transcription.Backend)
}

func newSummarizer(ctx context.Context, cfg *config.Config, logger logging.Logger, metrics *observability.Metrics) (summarize.Summarizer, func(), error) {
	noop := func() {}

	key, err := openAIKey()
	if err != nil {
		return nil, noop, err
	}
	base, err := summarize.NewOpenAISummarizer(summarize.OpenAIConfig{
		APIKey:     key,
		Model:      cfg.Summary.Model,
		BaseURL:    cfg.Summary.BaseURL,
		MaxRetries: summarizerRetries,
	})
	if err != nil {
		return nil, noop, mnerrors.InvalidConfiguration("summarizer: %v", err)
	}

	if !cfg.Cache.Enabled() {
		return base, noop, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := summarize.ConnectRedis(dialCtx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword)
	if err != nil {
		logger.Warn("Summary cache unavailable, continuing without it",
			logging.Err(err), logging.F("addr", cfg.Cache.RedisAddr))
		return base, noop, nil
	}

	cached := summarize.NewCachedSummarizer(base, summarize.NewRedisStore(client), base.Model(), cfg.Cache.TTL,
		summarize.WithCacheLogger(logger),
		summarize.WithCacheMetrics(metrics))
	return cached, func() { _ = client.Close() }, nil
}

func newArchiver(ctx context.Context, cfg *config.Config, logger logging.Logger, metrics *observability.Metrics) (archive.Archiver, func()) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := archive.Connect(dialCtx, archive.DefaultConfig(cfg.Archive.DatabaseURL))
	if err != nil {
		logger.Warn("Report archive unavailable, continuing without it", logging.Err(err))
		return nil, nil
	}

	store := archive.NewPostgresStore(pool)
	if err := store.EnsureSchema(dialCtx); err != nil {
		pool.Close()
		logger.Warn("Report archive schema check failed, continuing without it", logging.Err(err))
		return nil, nil
	}

	if _, err := archive.RegisterPoolStatsCollector(pool, metrics.Registry); err != nil {
		logger.Debug("Pool stats collector not registered", logging.Err(err))
	}
	return store, pool.Close
}

func newEventPublisher(ctx context.Context, cfg *config.Config, logger logging.Logger) *events.Publisher {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pub, err := events.NewPublisherFromConfig(dialCtx, events.PublisherConfig{
		Addr:     cfg.EventsAddr(),
		Password: cfg.Cache.RedisPassword,
	}, logger)
	if err != nil {
		logger.Warn("Event publishing unavailable, continuing without it",
			logging.Err(err), logging.F("addr", cfg.EventsAddr()))
		return nil
	}
	return pub
}
