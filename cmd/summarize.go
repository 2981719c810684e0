package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/pipeline"
	"github.com/otherjamesbrown/minutes/pkg/report"
)

type summarizeOptions struct {
	format    string
	outputDir string
	chunkSize float64
	title     string
}

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand(deps *StageCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultStageDeps()
	}

	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize <transcript_json>",
		Short: "Produce a summary report with scheduled action items",
		Long: `Split a transcript into fixed-length topic windows, summarize each window,
and collect the action items due tomorrow or in the next seven days.

The report is written next to the transcript as <basename>_summary.<ext>,
where <ext> follows --format (pdf, md or txt).

Examples:
  minutes summarize standup_transcript.json
  minutes summarize standup_transcript.json --format md --output-dir reports/
  minutes summarize standup_transcript.json --chunk-size 300`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd.Context(), cmd.OutOrStdout(), deps, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", string(report.FormatPDF), "report format: pdf, md, txt")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for the report (default: transcript's directory)")
	cmd.Flags().Float64Var(&opts.chunkSize, "chunk-size", 0, "topic window in seconds (default: chunk_size from config)")
	cmd.Flags().StringVar(&opts.title, "title", "", "report title (default: report_title from config)")

	return cmd
}

func runSummarize(ctx context.Context, out io.Writer, deps *StageCommandDeps, transcriptPath string, opts summarizeOptions) error {
	format := report.Format(opts.format)
	if !format.IsValid() {
		return mnerrors.InvalidConfiguration("unknown report format %q (want pdf, md or txt)", opts.format)
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithFormat(format),
		pipeline.WithOutputDir(opts.outputDir),
	}
	if opts.chunkSize != 0 {
		pipeOpts = append(pipeOpts, pipeline.WithChunkSize(opts.chunkSize))
	}
	if opts.title != "" {
		pipeOpts = append(pipeOpts, pipeline.WithReportTitle(opts.title))
	}

	res, err := runStage(ctx, deps, pipeline.StageSummarize, pipeOpts,
		func(p *pipeline.Pipeline) (*pipeline.Result, error) {
			return p.Summarize(ctx, transcriptPath)
		})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Summary written to %s\n", res.OutputPath)
	fmt.Fprintf(out, "  Topics:             %d\n", len(res.Report.Chunks))
	fmt.Fprintf(out, "  Due tomorrow:       %d\n", len(res.Report.Schedule.Tomorrow))
	fmt.Fprintf(out, "  Due in next 7 days: %d\n", len(res.Report.Schedule.NextWeek))
	return nil
}
