package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

// DefaultWhisperModel is the local model size.
const DefaultWhisperModel = "base"

// WhisperCLIRecognizer runs the openai-whisper command line tool locally and
// reads the JSON file it writes.
type WhisperCLIRecognizer struct {
	path     string
	model    string
	language string
	logger   logging.Logger
}

// WhisperConfig configures a WhisperCLIRecognizer.
type WhisperConfig struct {
	// Path to the whisper binary; "whisper" when empty.
	Path     string
	Model    string
	Language string
}

// NewWhisperCLIRecognizer returns a local recognizer.
func NewWhisperCLIRecognizer(cfg WhisperConfig, logger logging.Logger) *WhisperCLIRecognizer {
	if cfg.Path == "" {
		cfg.Path = "whisper"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultWhisperModel
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &WhisperCLIRecognizer{path: cfg.Path, model: cfg.Model, language: cfg.Language, logger: logger}
}

// Transcribe implements Recognizer.
func (w *WhisperCLIRecognizer) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	outDir, err := os.MkdirTemp("", "minutes-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("creating whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, w.path, audioPath,
		"--model", w.model,
		"--language", w.language,
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
	)
	cmd.WaitDelay = 2 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	w.logger.Debug("running whisper", logging.F("model", w.model), logging.F("audio", audioPath))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if i := strings.LastIndex(msg, "\n"); i >= 0 {
			msg = msg[i+1:]
		}
		if msg != "" {
			return nil, fmt.Errorf("whisper failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("whisper failed: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	f, err := os.Open(filepath.Join(outDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("reading whisper output: %w", err)
	}
	defer f.Close()

	t, err := transcript.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing whisper output: %v", mnerrors.ErrExternalService, err)
	}
	return tidy(t), nil
}
