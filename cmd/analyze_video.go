package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minutes/pkg/pipeline"
)

// NewAnalyzeVideoCommand creates the analyze_video command.
func NewAnalyzeVideoCommand(deps *StageCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultStageDeps()
	}

	cmd := &cobra.Command{
		Use:     "analyze_video <video_file> <transcript>",
		Aliases: []string{"analyze-video"},
		Short:   "Label transcript segments with on-screen participant names",
		Long: `Sample frames from a meeting recording, read participant name tiles with
tesseract, and label every transcript segment with one of the detected names.
When no names are found every segment is labelled "Unknown".

A JSON transcript is updated in place. A WebVTT transcript is converted and
written next to it as <basename>_transcript.json.

Examples:
  minutes analyze_video standup.mp4 standup_transcript.json
  minutes analyze-video standup.mp4 standup.vtt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyzeVideo(cmd.Context(), cmd.OutOrStdout(), deps, args[0], args[1])
		},
	}

	return cmd
}

func runAnalyzeVideo(ctx context.Context, out io.Writer, deps *StageCommandDeps, video, transcriptPath string) error {
	res, err := runStage(ctx, deps, pipeline.StageAnalyzeVideo, nil,
		func(p *pipeline.Pipeline) (*pipeline.Result, error) {
			return p.AnalyzeVideo(ctx, video, transcriptPath)
		})
	if err != nil {
		return err
	}

	if len(res.Speakers) == 0 {
		fmt.Fprintln(out, "No speaker names detected; segments labelled Unknown")
	} else {
		fmt.Fprintf(out, "Detected speakers: %s\n", strings.Join(res.Speakers, ", "))
	}
	fmt.Fprintf(out, "Transcript updated: %s (%d segments)\n", res.OutputPath, res.Segments)
	return nil
}
