// Package media extracts audio tracks and still frames from recordings with
// ffmpeg.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/otherjamesbrown/minutes/pkg/logging"
)

// DefaultFrameInterval is the gap between sampled frames.
const DefaultFrameInterval = 5 * time.Second

// waitDelay bounds how long a killed process may hold its output pipes.
const waitDelay = 2 * time.Second

// maxStderr bounds how much ffmpeg diagnostic output is kept for errors.
const maxStderr = 4096

// FFmpeg runs the ffmpeg binary.
type FFmpeg struct {
	path   string
	logger logging.Logger
}

// NewFFmpeg returns a runner for the binary at path ("ffmpeg" when empty,
// resolved through PATH).
func NewFFmpeg(path string, logger logging.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FFmpeg{path: path, logger: logger}
}

// ExtractAudio writes a mono 16 kHz WAV of videoPath's audio track into dir
// and returns its path.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, dir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	out := filepath.Join(dir, base+"_audio_16k.wav")

	if err := f.run(ctx, audioArgs(videoPath, out)); err != nil {
		return "", err
	}
	return out, nil
}

// ExtractFrames samples one PNG frame every interval into dir and returns the
// frame paths in timeline order.
func (f *FFmpeg) ExtractFrames(ctx context.Context, videoPath, dir string, interval time.Duration) ([]string, error) {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	pattern := filepath.Join(dir, "frame_%05d.png")

	if err := f.run(ctx, frameArgs(videoPath, pattern, interval)); err != nil {
		return nil, err
	}

	frames, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		return nil, fmt.Errorf("listing frames: %w", err)
	}
	sort.Strings(frames)
	return frames, nil
}

// audioArgs builds: ffmpeg -y -i input -vn -ac 1 -ar 16000 -f wav output
func audioArgs(in, out string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-y", "-i", in,
		"-vn", "-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	}
}

// frameArgs builds: ffmpeg -y -i input -vf fps=1/N pattern
func frameArgs(in, pattern string, interval time.Duration) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-y", "-i", in,
		"-vf", "fps=1/" + strconv.FormatFloat(interval.Seconds(), 'f', -1, 64),
		pattern,
	}
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	start := time.Now()
	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug("running ffmpeg", logging.F("args", args))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %w%s", err, stderrTail(stderr.Bytes()))
	}
	f.logger.Debug("ffmpeg finished", logging.F("duration", time.Since(start)))
	return nil
}

// stderrTail formats the end of a tool's stderr for inclusion in an error.
func stderrTail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return ""
	}
	if len(s) > maxStderr {
		s = "..." + s[len(s)-maxStderr:]
	}
	return ": " + s
}
