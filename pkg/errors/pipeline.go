package errors

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrorCode represents a classified stage error.
type ErrorCode string

const (
	ErrTimeout              ErrorCode = "timeout"
	ErrContextCancelled     ErrorCode = "context_cancelled"
	ErrRateLimit            ErrorCode = "rate_limit"
	ErrServiceUnavailable   ErrorCode = "service_unavailable"
	ErrToolMissing          ErrorCode = "tool_missing"
	ErrExternalFailure      ErrorCode = "external_failure"
	ErrTranscriptInvalid    ErrorCode = "invalid_transcript"
	ErrConfigurationInvalid ErrorCode = "invalid_configuration"
	ErrProcessingError      ErrorCode = "processing_error"
)

// StageError is a structured error for a failed pipeline stage.
type StageError struct {
	Code     ErrorCode
	Stage    string
	Message  string
	Duration time.Duration
	Cause    error
}

func (e *StageError) Error() string {
	if e.Duration > 0 && e.Code == ErrTimeout {
		return fmt.Sprintf("%s: %s timed out after %s", e.Code, e.Stage, e.Duration.Truncate(time.Second))
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Is maps the code onto the domain sentinels so errors.Is(err, ErrExternalService)
// holds for every collaborator failure.
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrExternalService:
		switch e.Code {
		case ErrTimeout, ErrRateLimit, ErrServiceUnavailable, ErrToolMissing, ErrExternalFailure:
			return true
		}
	case ErrInvalidTranscript:
		return e.Code == ErrTranscriptInvalid
	case ErrInvalidConfiguration:
		return e.Code == ErrConfigurationInvalid
	}
	return false
}

// ClassifyError inspects an error and returns a *StageError with the appropriate code.
// Errors that match no known pattern are classified as ErrProcessingError.
func ClassifyError(err error, stage string) *StageError {
	if err == nil {
		return nil
	}

	var existing *StageError
	if errors.As(err, &existing) {
		if existing.Stage == "" {
			existing.Stage = stage
		}
		return existing
	}

	se := &StageError{
		Stage:   stage,
		Cause:   err,
		Message: err.Error(),
	}

	switch {
	case errors.Is(err, ErrInvalidTranscript), errors.Is(err, ErrUnsortedInput):
		se.Code = ErrTranscriptInvalid
		return se
	case errors.Is(err, ErrInvalidConfiguration):
		se.Code = ErrConfigurationInvalid
		return se
	case errors.Is(err, context.DeadlineExceeded):
		se.Code = ErrTimeout
		se.Message = "operation timed out"
		return se
	case errors.Is(err, context.Canceled):
		se.Code = ErrContextCancelled
		se.Message = "operation cancelled"
		return se
	case errors.Is(err, exec.ErrNotFound):
		se.Code = ErrToolMissing
		return se
	}

	lower := strings.ToLower(err.Error())

	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests") || strings.Contains(lower, "quota exceeded") {
		se.Code = ErrRateLimit
		return se
	}

	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "unavailable") || strings.Contains(lower, "503") || strings.Contains(lower, "no such host") {
		se.Code = ErrServiceUnavailable
		return se
	}

	if errors.Is(err, ErrExternalService) {
		se.Code = ErrExternalFailure
		return se
	}

	se.Code = ErrProcessingError
	return se
}

// External classifies a collaborator failure. Unrecognised errors become
// ErrExternalFailure rather than ErrProcessingError, since the collaborator is
// the one that failed.
func External(stage string, err error) error {
	se := ClassifyError(err, stage)
	if se == nil {
		return nil
	}
	if se.Code == ErrProcessingError {
		se.Code = ErrExternalFailure
	}
	return se
}

// IsTimeout returns true if the error is a timeout error.
func IsTimeout(err error) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Code == ErrTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// CodeOf returns the classified code for err.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return ClassifyError(err, "").Code
}
