// Package cmd provides CLI commands for the minutes tool.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/otherjamesbrown/minutes/config"
	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/pipeline"
)

// BuildFunc assembles the pipeline collaborators a stage needs. The returned
// cleanup, when non-nil, closes any connections it opened, even on error.
type BuildFunc func(ctx context.Context, cfg *config.Config, stage string, logger logging.Logger, opts ...pipeline.Option) (*pipeline.Pipeline, func(), error)

// StageCommandDeps holds the dependencies for the transcribe, analyze_video
// and summarize commands.
type StageCommandDeps struct {
	Config        *config.Config
	Logger        logging.Logger
	LoadConfig    func() (*config.Config, error)
	BuildPipeline BuildFunc
}

// DefaultStageDeps returns the default dependencies for production use.
func DefaultStageDeps() *StageCommandDeps {
	return &StageCommandDeps{
		LoadConfig:    config.LoadConfig,
		BuildPipeline: BuildPipeline,
	}
}

func (d *StageCommandDeps) config() (*config.Config, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

func (d *StageCommandDeps) logger(cfg *config.Config) logging.Logger {
	if d.Logger == nil {
		d.Logger = NewLogger(cfg)
	}
	return d.Logger
}

// NewLogger builds the process logger from cfg. Logs always go to stderr so
// stdout carries only command output.
func NewLogger(cfg *config.Config) logging.Logger {
	lc := logging.DefaultConfig()
	lc.Output = os.Stderr
	lc.JSONFormat = cfg.LogFormat == config.LogFormatJSON
	if cfg.Debug {
		lc.Level = logging.LevelDebug
	}
	return logging.NewLogger(lc)
}

// runStage builds a pipeline for stage and hands it to fn.
func runStage(ctx context.Context, deps *StageCommandDeps, stage string, opts []pipeline.Option, fn func(*pipeline.Pipeline) (*pipeline.Result, error)) (*pipeline.Result, error) {
	cfg, err := deps.config()
	if err != nil {
		return nil, err
	}
	log := deps.logger(cfg)

	p, cleanup, err := deps.BuildPipeline(ctx, cfg, stage, log, opts...)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, err
	}

	return fn(p)
}
