package stt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

// DefaultOpenAIModel is the speech model used when none is configured.
const DefaultOpenAIModel = "whisper-1"

const defaultOpenAIBaseURL = "https://api.openai.com/v1/"

// OpenAIRecognizer posts audio to the OpenAI transcription endpoint and asks
// for verbose_json so segment timings come back.
type OpenAIRecognizer struct {
	apiKey   string
	model    string
	language string
	baseURL  string
	client   *http.Client
}

// OpenAIConfig configures an OpenAIRecognizer.
type OpenAIConfig struct {
	APIKey   string
	Model    string
	Language string
	BaseURL  string
	Timeout  time.Duration
}

// NewOpenAIRecognizer returns a recognizer for cfg.
func NewOpenAIRecognizer(cfg OpenAIConfig) (*OpenAIRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key must not be empty")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Minute
	}
	return &OpenAIRecognizer{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		language: cfg.Language,
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Transcribe implements Recognizer.
func (o *OpenAIRecognizer) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := [][2]string{
		{"model", o.model},
		{"language", o.language},
		{"response_format", "verbose_json"},
		{"timestamp_granularities[]", "segment"},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	t, err := transcript.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: openai transcription response: %v", mnerrors.ErrExternalService, err)
	}
	return tidy(t), nil
}
