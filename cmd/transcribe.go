package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minutes/pkg/pipeline"
)

// NewTranscribeCommand creates the transcribe command.
func NewTranscribeCommand(deps *StageCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultStageDeps()
	}

	var outputDir string

	cmd := &cobra.Command{
		Use:   "transcribe <video_file>",
		Short: "Transcribe a meeting recording to time-stamped JSON",
		Long: `Extract the audio track of a meeting recording and run speech recognition
over it. The transcript is written as <basename>_transcript.json in the current
directory (or --output-dir).

The recognizer is chosen by transcription.backend: "openai" posts the audio to
the OpenAI transcription API, "local" runs the whisper CLI.

Examples:
  minutes transcribe standup.mp4
  minutes transcribe standup.mp4 --output-dir out/
  MINUTES_TRANSCRIPTION_BACKEND=local minutes transcribe standup.mp4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), cmd.OutOrStdout(), deps, args[0], outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for the transcript (default: current directory)")

	return cmd
}

func runTranscribe(ctx context.Context, out io.Writer, deps *StageCommandDeps, video, outputDir string) error {
	res, err := runStage(ctx, deps, pipeline.StageTranscribe,
		[]pipeline.Option{pipeline.WithOutputDir(outputDir)},
		func(p *pipeline.Pipeline) (*pipeline.Result, error) {
			return p.Transcribe(ctx, video)
		})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Transcript written to %s (%d segments)\n", res.OutputPath, res.Segments)
	return nil
}
