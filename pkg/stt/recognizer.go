// Package stt turns extracted audio into time-stamped transcript segments.
package stt

import (
	"context"
	"strings"

	"github.com/otherjamesbrown/minutes/pkg/transcript"
)

// Recognizer transcribes an audio file.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error)
}

// Backend names accepted in configuration.
const (
	BackendOpenAI = "openai"
	BackendLocal  = "local"
)

// DefaultLanguage is the spoken language hint passed to recognizers.
const DefaultLanguage = "en"

// tidy trims the whitespace recognizers leave around segment text.
func tidy(t *transcript.Transcript) *transcript.Transcript {
	for i := range t.Segments {
		t.Segments[i].Text = strings.TrimSpace(t.Segments[i].Text)
	}
	return t
}
