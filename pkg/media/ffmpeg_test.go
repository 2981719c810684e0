package media

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool writes an executable shell script standing in for a binary.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// The output path is always the last argument.
const touchLast = `for last; do :; done
touch "$last"
`

const writeTwoFrames = `for last; do :; done
touch "$(printf "$last" 1)" "$(printf "$last" 2)"
`

func TestAudioArgs(t *testing.T) {
	args := audioArgs("in.mp4", "/tmp/out.wav")
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i in.mp4")
	assert.Contains(t, joined, "-ac 1 -ar 16000")
	assert.Equal(t, "/tmp/out.wav", args[len(args)-1])
}

func TestFrameArgs(t *testing.T) {
	args := frameArgs("in.mp4", "f_%05d.png", 5*time.Second)
	assert.Contains(t, args, "fps=1/5")
	args = frameArgs("in.mp4", "f_%05d.png", 2500*time.Millisecond)
	assert.Contains(t, args, "fps=1/2.5")
}

func TestExtractAudio(t *testing.T) {
	f := NewFFmpeg(fakeTool(t, touchLast), nil)
	dir := t.TempDir()

	out, err := f.ExtractAudio(context.Background(), "/videos/standup.mp4", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "standup_audio_16k.wav"), out)
	assert.FileExists(t, out)
}

func TestExtractFrames(t *testing.T) {
	f := NewFFmpeg(fakeTool(t, writeTwoFrames), nil)
	dir := t.TempDir()

	frames, err := f.ExtractFrames(context.Background(), "talk.mp4", dir, 0)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, filepath.Join(dir, "frame_00001.png"), frames[0])
	assert.Equal(t, filepath.Join(dir, "frame_00002.png"), frames[1])
}

func TestRun_FailureIncludesStderr(t *testing.T) {
	f := NewFFmpeg(fakeTool(t, "echo 'moov atom not found' >&2\nexit 1\n"), nil)

	_, err := f.ExtractAudio(context.Background(), "broken.mp4", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg")
	assert.Contains(t, err.Error(), "moov atom not found")
}

func TestRun_MissingBinary(t *testing.T) {
	f := NewFFmpeg("minutes-no-such-ffmpeg", nil)
	_, err := f.ExtractAudio(context.Background(), "a.mp4", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestRun_ContextCancelled(t *testing.T) {
	f := NewFFmpeg(fakeTool(t, "exec sleep 5\n"), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.ExtractAudio(ctx, "a.mp4", t.TempDir())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "", stderrTail(nil))
	assert.Equal(t, ": boom", stderrTail([]byte("  boom\n")))
	long := strings.Repeat("x", maxStderr+10)
	assert.True(t, strings.HasPrefix(stderrTail([]byte(long)), ": ..."))
}
