package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/otherjamesbrown/minutes/config"
	"github.com/otherjamesbrown/minutes/pkg/buildinfo"
)

func TestVersionCommand(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("Unexpected Use: %s", versionCmd.Use)
	}
	if versionCmd.Flags().Lookup("json") == nil {
		t.Error("--json flag not found on version command")
	}
}

func TestVersionCommand_Output(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	if err := versionCmd.RunE(versionCmd, nil); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "minutes version ") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionJSON = true
	defer func() { versionJSON = false }()

	if err := versionCmd.RunE(versionCmd, nil); err != nil {
		t.Fatalf("version: %v", err)
	}

	var info buildinfo.Info
	if err := json.Unmarshal(buf.Bytes(), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if info.Name != "minutes" {
		t.Errorf("Name = %q, want minutes", info.Name)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"transcribe", "analyze_video", "summarize", "auth", "config", "version"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c == rootCmd {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	c, _, err := rootCmd.Find([]string{"analyze-video"})
	if err != nil || c.Name() != "analyze_video" {
		t.Error("analyze-video alias not registered")
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"timeout", "debug", "log-format", "metrics-file"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s persistent flag not found", name)
		}
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("MINUTES_CONFIG_DIR", t.TempDir())
	t.Setenv("MINUTES_ENV_FILE", "does-not-exist.env")

	timeout, debug, logFormat, metricsFile = 10*time.Minute, true, config.LogFormatJSON, "/tmp/minutes.prom"
	defer func() { timeout, debug, logFormat, metricsFile = 0, false, "", "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Timeout != 10*time.Minute {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.Debug {
		t.Error("Debug should be set by --debug")
	}
	if cfg.LogFormat != config.LogFormatJSON {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
	if cfg.MetricsFile != "/tmp/minutes.prom" {
		t.Errorf("MetricsFile = %q", cfg.MetricsFile)
	}
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	t.Setenv("MINUTES_CONFIG_DIR", t.TempDir())
	t.Setenv("MINUTES_ENV_FILE", "does-not-exist.env")

	logFormat = "xml"
	defer func() { logFormat = "" }()

	if _, err := loadConfig(); err == nil {
		t.Error("expected an error for --log-format xml")
	}
}
