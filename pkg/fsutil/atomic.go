// Package fsutil holds small filesystem helpers shared by the stage commands.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteAtomic writes a file by streaming into a temporary sibling and renaming
// it over path once write succeeds, so a failed stage never leaves a
// half-written output behind.
func WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Basename strips the directory, then the given suffix if present, otherwise
// the extension. "rec/team_transcript.json" with suffix "_transcript.json"
// yields "team".
func Basename(path, suffix string) string {
	base := filepath.Base(path)
	if suffix != "" && strings.HasSuffix(base, suffix) && len(base) > len(suffix) {
		return strings.TrimSuffix(base, suffix)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
