// Package ocr reads participant names off video frames.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/otherjamesbrown/minutes/pkg/logging"
)

// Scanner finds candidate speaker names in a video.
type Scanner interface {
	DetectNames(ctx context.Context, videoPath string) ([]string, error)
}

// FrameExtractor samples still frames from a video into dir.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath, dir string, interval time.Duration) ([]string, error)
}

// DefaultSimilarity is the Jaro-Winkler score above which two OCR readings are
// treated as the same name.
const DefaultSimilarity = 0.93

// nameRegex matches a capitalized first and last name, the way conferencing
// tools label participant tiles.
var nameRegex = regexp.MustCompile(`\b[A-Z][a-z]+\s[A-Z][a-z]+\b`)

// TesseractScanner samples frames with a FrameExtractor and runs the
// tesseract CLI over each one.
type TesseractScanner struct {
	frames     FrameExtractor
	tesseract  string
	interval   time.Duration
	similarity float64
	logger     logging.Logger
}

// TesseractConfig configures a TesseractScanner.
type TesseractConfig struct {
	// Path to the tesseract binary; "tesseract" when empty.
	Path string
	// Interval between sampled frames.
	Interval time.Duration
	// Similarity threshold for merging near-duplicate names.
	Similarity float64
}

// NewTesseractScanner returns a Scanner using frames for sampling.
func NewTesseractScanner(frames FrameExtractor, cfg TesseractConfig, logger logging.Logger) *TesseractScanner {
	if cfg.Path == "" {
		cfg.Path = "tesseract"
	}
	if cfg.Similarity <= 0 {
		cfg.Similarity = DefaultSimilarity
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TesseractScanner{
		frames:     frames,
		tesseract:  cfg.Path,
		interval:   cfg.Interval,
		similarity: cfg.Similarity,
		logger:     logger,
	}
}

// DetectNames returns the distinct names seen across sampled frames, sorted.
// A frame tesseract cannot read is skipped; a missing tesseract binary fails
// the scan.
func (s *TesseractScanner) DetectNames(ctx context.Context, videoPath string) ([]string, error) {
	dir, err := os.MkdirTemp("", "minutes-frames-*")
	if err != nil {
		return nil, fmt.Errorf("creating frame dir: %w", err)
	}
	defer os.RemoveAll(dir)

	frames, err := s.frames.ExtractFrames(ctx, videoPath, dir, s.interval)
	if err != nil {
		return nil, fmt.Errorf("sampling frames: %w", err)
	}
	s.logger.Debug("sampled frames", logging.F("frames", len(frames)))

	var seen []string
	skipped := 0
	for _, frame := range frames {
		text, err := s.readFrame(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, exec.ErrNotFound) {
				return nil, err
			}
			skipped++
			s.logger.Warn("skipping unreadable frame", logging.F("frame", frame), logging.Err(err))
			continue
		}
		seen = append(seen, FindNames(text)...)
	}

	names := DedupeNames(seen, s.similarity)
	s.logger.Info("detected names",
		logging.F("names", names),
		logging.F("frames", len(frames)),
		logging.F("skipped", skipped),
	)
	return names, nil
}

func (s *TesseractScanner) readFrame(ctx context.Context, frame string) (string, error) {
	cmd := exec.CommandContext(ctx, s.tesseract, frame, "stdout")
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return stdout.String(), nil
}

// FindNames returns every "First Last" match in text, in order.
func FindNames(text string) []string {
	return nameRegex.FindAllString(text, -1)
}

// DedupeNames collapses OCR readings of the same name. Readings are ranked by
// frequency (ties broken lexically); each is kept unless it is within
// threshold Jaro-Winkler similarity of a name already kept. The result is
// sorted.
func DedupeNames(readings []string, threshold float64) []string {
	counts := make(map[string]int)
	for _, r := range readings {
		counts[r]++
	}

	ranked := make([]string, 0, len(counts))
	for name := range counts {
		ranked = append(ranked, name)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	kept := make([]string, 0, len(ranked))
	for _, name := range ranked {
		duplicate := false
		for _, k := range kept {
			if matchr.JaroWinkler(name, k, false) >= threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, name)
		}
	}

	sort.Strings(kept)
	return kept
}
