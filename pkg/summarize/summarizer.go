// Package summarize condenses chunk text into short summaries.
package summarize

import (
	"context"
)

// Default summary bounds, in words.
const (
	DefaultMaxLength = 150
	DefaultMinLength = 60
)

// Summarizer condenses text to roughly between minLength and maxLength words.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

// Func adapts a plain function to the Summarizer interface.
type Func func(ctx context.Context, text string, maxLength, minLength int) (string, error)

// Summarize calls f.
func (f Func) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	return f(ctx, text, maxLength, minLength)
}
