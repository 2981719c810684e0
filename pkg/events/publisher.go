// Package events publishes pipeline stage lifecycle events to Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/minutes/pkg/logging"
)

// Redis channels for stage events
const (
	ChannelStageStarted   = "events.minutes.stage_started"
	ChannelStageCompleted = "events.minutes.stage_completed"
)

// Stage outcomes carried in StageCompletedEvent.Status.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent stamped with the current UTC time.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "minutes",
		Version:   "1.0",
	}
}

// StageStartedEvent is published when a stage begins processing an input.
type StageStartedEvent struct {
	BaseEvent

	RunID     string `json:"run_id"`
	Stage     string `json:"stage"`
	InputPath string `json:"input_path"`
}

// StageCompletedEvent is published when a stage finishes, successfully or not.
type StageCompletedEvent struct {
	BaseEvent

	RunID           string  `json:"run_id"`
	Stage           string  `json:"stage"`
	Status          string  `json:"status"`
	InputPath       string  `json:"input_path"`
	OutputPath      string  `json:"output_path,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	ErrorCode       string  `json:"error_code,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// StageCompletedParams contains parameters for publishing stage completion.
type StageCompletedParams struct {
	RunID      string
	Stage      string
	InputPath  string
	OutputPath string
	StartedAt  time.Time
	Err        error
	ErrorCode  string
}

// Sink receives stage events. The pipeline depends on this rather than on
// Publisher so runs without Redis use NopSink.
type Sink interface {
	PublishStageStarted(ctx context.Context, runID, stage, inputPath string) error
	PublishStageCompleted(ctx context.Context, params StageCompletedParams) error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) PublishStageStarted(context.Context, string, string, string) error { return nil }
func (NopSink) PublishStageCompleted(context.Context, StageCompletedParams) error { return nil }

// redisPublisher is the subset of *redis.Client the publisher needs.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

var _ Sink = (*Publisher)(nil)

// Publisher publishes stage events to Redis.
type Publisher struct {
	client redisPublisher
	logger logging.Logger
	now    func() time.Time
}

// PublisherConfig holds Redis connection configuration.
type PublisherConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger logging.Logger) *Publisher {
	return newPublisher(client, logger)
}

func newPublisher(client redisPublisher, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{
		client: client,
		logger: logger.With(logging.F("component", "event_publisher")),
		now:    time.Now,
	}
}

// NewPublisherFromConfig creates a publisher with a new Redis connection.
func NewPublisherFromConfig(ctx context.Context, cfg PublisherConfig, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return NewPublisher(client, logger), nil
}

// PublishStageStarted publishes a stage_started event.
func (p *Publisher) PublishStageStarted(ctx context.Context, runID, stage, inputPath string) error {
	event := StageStartedEvent{
		BaseEvent: p.base("stage.started"),
		RunID:     runID,
		Stage:     stage,
		InputPath: inputPath,
	}
	return p.publish(ctx, ChannelStageStarted, event)
}

// PublishStageCompleted publishes a stage_completed event. A non-nil
// params.Err marks the stage as failed.
func (p *Publisher) PublishStageCompleted(ctx context.Context, params StageCompletedParams) error {
	event := StageCompletedEvent{
		BaseEvent:  p.base("stage.completed"),
		RunID:      params.RunID,
		Stage:      params.Stage,
		Status:     StatusSucceeded,
		InputPath:  params.InputPath,
		OutputPath: params.OutputPath,
		ErrorCode:  params.ErrorCode,
	}
	if !params.StartedAt.IsZero() {
		event.DurationSeconds = event.Timestamp.Sub(params.StartedAt).Seconds()
	}
	if params.Err != nil {
		event.Status = StatusFailed
		event.ErrorMessage = params.Err.Error()
		event.OutputPath = ""
	}
	return p.publish(ctx, ChannelStageCompleted, event)
}

func (p *Publisher) base(eventType string) BaseEvent {
	b := NewBaseEvent(eventType)
	b.Timestamp = p.now().UTC()
	return b
}

// publish serializes and publishes an event to Redis.
func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", channel),
		logging.F("payload_size", len(data)))

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
