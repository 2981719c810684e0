package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint string
	}{
		{
			name:     "timeout",
			err:      mnerrors.ClassifyError(context.DeadlineExceeded, "summarize"),
			wantHint: mnerrors.GetSuggestedAction(mnerrors.ErrTimeout),
		},
		{
			name:     "invalid configuration",
			err:      fmt.Errorf("loading configuration: %w", mnerrors.InvalidConfiguration("chunk_size must be positive")),
			wantHint: mnerrors.GetSuggestedAction(mnerrors.ErrConfigurationInvalid),
		},
		{
			name:     "invalid transcript",
			err:      mnerrors.InvalidTranscript("segment 0 is missing end"),
			wantHint: mnerrors.GetSuggestedAction(mnerrors.ErrTranscriptInvalid),
		},
		{
			name: "plain error",
			err:  errors.New("accepts 1 arg(s), received 0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatError(tt.err)
			want := "Error: " + tt.err.Error()
			if tt.wantHint != "" {
				want += "\nHint: " + tt.wantHint
			}
			if got != want {
				t.Errorf("FormatError() =\n%q\nwant\n%q", got, want)
			}
		})
	}
}
