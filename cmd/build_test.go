package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minutes/config"
	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/pipeline"
)

// unreachable is a loopback port nothing listens on.
const unreachable = "127.0.0.1:1"

func stubAPIKey(t *testing.T, key string, err error) {
	t.Helper()
	orig := apiKeyLookup
	apiKeyLookup = func() (string, error) { return key, err }
	t.Cleanup(func() { apiKeyLookup = orig })
}

func TestBuildPipeline_Stages(t *testing.T) {
	stubAPIKey(t, "sk-test-key-000000", nil)

	for _, stage := range []string{pipeline.StageTranscribe, pipeline.StageAnalyzeVideo, pipeline.StageSummarize} {
		t.Run(stage, func(t *testing.T) {
			p, cleanup, err := BuildPipeline(context.Background(), config.DefaultConfig(), stage, logging.NewNopLogger())
			require.NoError(t, err)
			require.NotNil(t, cleanup)
			defer cleanup()
			assert.NotNil(t, p)
		})
	}
}

func TestBuildPipeline_UnknownStage(t *testing.T) {
	_, cleanup, err := BuildPipeline(context.Background(), config.DefaultConfig(), "publish", logging.NewNopLogger())
	cleanup()
	assert.True(t, mnerrors.IsInvalidConfiguration(err))
}

func TestBuildPipeline_MissingAPIKey(t *testing.T) {
	stubAPIKey(t, "", errors.New("no credentials stored"))

	for _, stage := range []string{pipeline.StageTranscribe, pipeline.StageSummarize} {
		_, cleanup, err := BuildPipeline(context.Background(), config.DefaultConfig(), stage, logging.NewNopLogger())
		cleanup()
		require.Error(t, err, stage)
		assert.True(t, mnerrors.IsInvalidConfiguration(err))
		assert.Contains(t, err.Error(), "minutes auth login")
	}
}

func TestBuildPipeline_LocalBackendNeedsNoKey(t *testing.T) {
	stubAPIKey(t, "", errors.New("no credentials stored"))

	cfg := config.DefaultConfig()
	cfg.Transcription.Backend = config.BackendLocal
	p, cleanup, err := BuildPipeline(context.Background(), cfg, pipeline.StageTranscribe, logging.NewNopLogger())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, p)
}

func TestBuildPipeline_AnalyzeNeedsNoKey(t *testing.T) {
	stubAPIKey(t, "", errors.New("no credentials stored"))

	_, cleanup, err := BuildPipeline(context.Background(), config.DefaultConfig(), pipeline.StageAnalyzeVideo, logging.NewNopLogger())
	defer cleanup()
	assert.NoError(t, err)
}

func TestBuildPipeline_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Transcription.Backend = "azure"
	_, cleanup, err := BuildPipeline(context.Background(), cfg, pipeline.StageTranscribe, logging.NewNopLogger())
	cleanup()
	assert.True(t, mnerrors.IsInvalidConfiguration(err))
}

func TestBuildPipeline_OptionalServicesDegrade(t *testing.T) {
	stubAPIKey(t, "sk-test-key-000000", nil)

	cfg := config.DefaultConfig()
	cfg.Cache.RedisAddr = unreachable
	cfg.Events.Enabled = true
	cfg.Archive.DatabaseURL = "postgres://minutes@" + unreachable + "/minutes?sslmode=disable&connect_timeout=1"

	p, cleanup, err := BuildPipeline(context.Background(), cfg, pipeline.StageSummarize, logging.NewNopLogger())
	require.NoError(t, err, "unreachable optional services must not fail the stage")
	defer cleanup()
	assert.NotNil(t, p)
}
