// Package errors provides the error taxonomy shared by every minutes stage.
//
// Core operations return one of the sentinel errors below (possibly wrapped), and
// failures of external collaborators are reported as *StageError values that carry
// the failing stage and the collaborator's diagnostic. Both forms work with
// errors.Is, so callers only need the sentinels:
//
//	import mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
//
//	if mnerrors.IsInvalidTranscript(err) {
//	    // malformed input file
//	}
package errors

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrInvalidTranscript indicates a transcript document is missing segments or
	// segments are missing required fields.
	ErrInvalidTranscript = errors.New("invalid transcript")

	// ErrInvalidConfiguration indicates a tunable such as chunk_size is out of range.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrExternalService indicates speech recognition, OCR, summarization or audio
	// extraction failed.
	ErrExternalService = errors.New("external service failure")

	// ErrUnsortedInput indicates segments are not ordered by start time.
	ErrUnsortedInput = errors.New("unsorted input")
)

// InvalidTranscript returns an error wrapping ErrInvalidTranscript.
func InvalidTranscript(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTranscript, fmt.Sprintf(format, args...))
}

// InvalidConfiguration returns an error wrapping ErrInvalidConfiguration.
func InvalidConfiguration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// IsInvalidTranscript reports whether any error in err's chain is ErrInvalidTranscript.
func IsInvalidTranscript(err error) bool {
	return errors.Is(err, ErrInvalidTranscript)
}

// IsInvalidConfiguration reports whether any error in err's chain is ErrInvalidConfiguration.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsExternalService reports whether any error in err's chain is ErrExternalService.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService)
}

// IsUnsortedInput reports whether any error in err's chain is ErrUnsortedInput.
func IsUnsortedInput(err error) bool {
	return errors.Is(err, ErrUnsortedInput)
}
