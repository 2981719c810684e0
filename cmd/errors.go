package cmd

import (
	"errors"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
)

// FormatError renders err for the terminal. Classified stage failures get the
// registry's suggested action as a hint line.
func FormatError(err error) string {
	msg := "Error: " + err.Error()

	var se *mnerrors.StageError
	if !errors.As(err, &se) && !mnerrors.IsInvalidConfiguration(err) && !mnerrors.IsInvalidTranscript(err) {
		return msg
	}
	if hint := mnerrors.GetSuggestedAction(mnerrors.CodeOf(err)); hint != "" {
		msg += "\nHint: " + hint
	}
	return msg
}
