package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minutes/config"
)

// ConfigCommandDeps holds the dependencies for config commands.
type ConfigCommandDeps struct {
	LoadConfig func() (*config.Config, error)
	SaveConfig func(*config.Config) error
	ConfigPath func() (string, error)
}

// DefaultConfigDeps returns the default dependencies for production use.
func DefaultConfigDeps() *ConfigCommandDeps {
	return &ConfigCommandDeps{
		LoadConfig: config.LoadConfig,
		SaveConfig: config.SaveConfig,
		ConfigPath: config.ConfigPath,
	}
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(deps *ConfigCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultConfigDeps()
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage minutes configuration",
		Long: `View and create the minutes configuration file (~/.minutes/config.yaml).
Every setting can also be overridden with a MINUTES_* environment variable.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			path, _ := deps.ConfigPath()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Current configuration:")
			fmt.Fprintf(out, "  Config file:    %s\n", path)
			fmt.Fprintf(out, "  Chunk size:     %gs\n", cfg.ChunkSize)
			fmt.Fprintf(out, "  Report title:   %s\n", cfg.ReportTitle)
			fmt.Fprintf(out, "  Timeout:        %s\n", cfg.Timeout)
			fmt.Fprintf(out, "  Summary:        %s (%d-%d words)\n", cfg.Summary.Model, cfg.Summary.MinLength, cfg.Summary.MaxLength)
			fmt.Fprintf(out, "  Transcription:  %s/%s (%s)\n", cfg.Transcription.Backend, cfg.TranscriptionModel(), cfg.Transcription.Language)
			fmt.Fprintf(out, "  OCR interval:   %s\n", cfg.OCR.FrameInterval)
			fmt.Fprintf(out, "  Summary cache:  %s\n", valueOrDefault(cfg.Cache.RedisAddr, "(disabled)"))
			fmt.Fprintf(out, "  Report archive: %t\n", cfg.Archive.Enabled())
			fmt.Fprintf(out, "  Events:         %t\n", cfg.Events.Enabled)
			fmt.Fprintf(out, "  Log format:     %s\n", cfg.LogFormat)
			fmt.Fprintf(out, "  Debug:          %t\n", cfg.Debug)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  `Create a new configuration file with default values if one doesn't exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := deps.ConfigPath()
			if err != nil {
				return fmt.Errorf("getting config path: %w", err)
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(out, "Configuration file already exists: %s\n", path)
				fmt.Fprintln(out, "Use 'minutes config show' to view current settings.")
				return nil
			}

			if err := deps.SaveConfig(config.DefaultConfig()); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}
			fmt.Fprintf(out, "Created configuration file: %s\n", path)
			return nil
		},
	})

	return cmd
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
