package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
)

const verboseJSON = `{
	"task": "transcribe",
	"language": "english",
	"duration": 9.5,
	"text": " Hello everyone. Let's get started.",
	"segments": [
		{"id": 0, "seek": 0, "start": 0.0, "end": 4.2, "text": " Hello everyone.", "avg_logprob": -0.21},
		{"id": 1, "seek": 0, "start": 4.2, "end": 9.5, "text": " Let's get started.", "avg_logprob": -0.18}
	]
}`

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "standup_audio_16k.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o644))
	return path
}

func TestOpenAIRecognizer_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "standup_audio_16k.wav", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "RIFF....WAVE", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, verboseJSON)
	}))
	defer srv.Close()

	rec, err := NewOpenAIRecognizer(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	tr, err := rec.Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)
	require.Len(t, tr.Segments, 2)
	assert.Equal(t, "Hello everyone.", tr.Segments[0].Text)
	assert.Equal(t, 4.2, tr.Segments[1].Start)
	assert.Contains(t, tr.Segments[0].Extra, "avg_logprob")
	assert.Contains(t, tr.Extra, "language")
}

func TestOpenAIRecognizer_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "Rate limit reached"}}`)
	}))
	defer srv.Close()

	rec, err := NewOpenAIRecognizer(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = rec.Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai http 429")
	assert.Equal(t, mnerrors.ErrRateLimit, mnerrors.CodeOf(err))
}

func TestOpenAIRecognizer_BadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"text": "no segments"}`)
	}))
	defer srv.Close()

	rec, err := NewOpenAIRecognizer(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = rec.Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, mnerrors.ErrExternalService)
	assert.False(t, mnerrors.IsInvalidTranscript(err))
}

func TestOpenAIRecognizer_MissingAudio(t *testing.T) {
	rec, err := NewOpenAIRecognizer(OpenAIConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	_, err = rec.Transcribe(context.Background(), filepath.Join(t.TempDir(), "none.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewOpenAIRecognizer_RequiresKey(t *testing.T) {
	_, err := NewOpenAIRecognizer(OpenAIConfig{})
	assert.Error(t, err)
}

func fakeWhisper(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "whisper")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// Writes <output_dir>/<audio basename>.json like the whisper CLI.
const whisperWritesJSON = `audio="$1"
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_dir" ]; then dir="$2"; fi
  if [ "$1" = "--model" ]; then model="$2"; fi
  shift
done
[ "$model" = "base" ] || exit 3
name=$(basename "$audio")
name="${name%.*}"
printf '{"text": " hi", "language": "en", "segments": [{"id": 0, "start": 0, "end": 1.5, "text": " hi there"}]}' > "$dir/$name.json"
`

func TestWhisperCLIRecognizer(t *testing.T) {
	rec := NewWhisperCLIRecognizer(WhisperConfig{Path: fakeWhisper(t, whisperWritesJSON)}, nil)

	tr, err := rec.Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)
	require.Len(t, tr.Segments, 1)
	assert.Equal(t, "hi there", tr.Segments[0].Text)
	assert.Equal(t, 1.5, tr.Segments[0].End)
}

func TestWhisperCLIRecognizer_Failure(t *testing.T) {
	rec := NewWhisperCLIRecognizer(WhisperConfig{
		Path: fakeWhisper(t, "echo 'loading model' >&2\necho 'RuntimeError: CUDA out of memory' >&2\nexit 1\n"),
	}, nil)

	_, err := rec.Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDA out of memory")
	assert.NotContains(t, err.Error(), "loading model")
}

func TestWhisperCLIRecognizer_NoOutput(t *testing.T) {
	rec := NewWhisperCLIRecognizer(WhisperConfig{Path: fakeWhisper(t, "exit 0\n")}, nil)
	_, err := rec.Transcribe(context.Background(), writeAudio(t))
	assert.ErrorContains(t, err, "reading whisper output")
}
