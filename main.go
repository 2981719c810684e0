// Package main provides the minutes CLI entry point.
// minutes turns a recorded meeting into a transcript, labels who spoke, and
// produces a summary report with scheduled action items.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minutes/cmd"
	"github.com/otherjamesbrown/minutes/config"
	"github.com/otherjamesbrown/minutes/pkg/buildinfo"
)

// Global flags.
var (
	timeout     time.Duration
	debug       bool
	logFormat   string
	metricsFile string

	stageDeps = cmd.DefaultStageDeps()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "minutes",
	Short: "Meeting recordings to transcripts, speaker labels and summary reports",
	Long: `minutes turns a recorded meeting into a written report in three stages:

  transcribe      video -> <basename>_transcript.json
  analyze_video   label each transcript segment with an on-screen name
  summarize       transcript -> topic summaries and scheduled action items

Each stage reads and writes plain files, so stages can be re-run on their own.

Configuration is read from ~/.minutes/config.yaml, a .env file in the working
directory, and MINUTES_* environment variables, in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get("minutes")

		if versionJSON {
			enc := json.NewEncoder(c.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		out := c.OutOrStdout()
		fmt.Fprintf(out, "minutes version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
		return nil
	},
}

var versionJSON bool

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if timeout != 0 {
		cfg.Timeout = timeout
	}
	if debug {
		cfg.Debug = true
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if metricsFile != "" {
		cfg.MetricsFile = metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-stage time limit (e.g. 30m, 2h)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console, json")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file after each stage")

	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")

	stageDeps.LoadConfig = loadConfig
	configDeps := cmd.DefaultConfigDeps()
	configDeps.LoadConfig = loadConfig

	rootCmd.AddGroup(
		&cobra.Group{ID: "stages", Title: "Pipeline Stages:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	for _, c := range []*cobra.Command{
		cmd.NewTranscribeCommand(stageDeps),
		cmd.NewAnalyzeVideoCommand(stageDeps),
		cmd.NewSummarizeCommand(stageDeps),
	} {
		c.GroupID = "stages"
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{
		cmd.NewAuthCommand(nil),
		cmd.NewConfigCommand(configDeps),
		versionCmd,
	} {
		c.GroupID = "setup"
		rootCmd.AddCommand(c)
	}
}

func main() {
	// Interrupts cancel the running stage; partial outputs are never left behind.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cmdErr := rootCmd.ExecuteContext(ctx)
	stop()

	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, cmd.FormatError(cmdErr))
		os.Exit(1)
	}
}
