package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeRegistry_Completeness(t *testing.T) {
	allCodes := []ErrorCode{
		ErrTimeout,
		ErrContextCancelled,
		ErrRateLimit,
		ErrServiceUnavailable,
		ErrToolMissing,
		ErrExternalFailure,
		ErrTranscriptInvalid,
		ErrConfigurationInvalid,
		ErrProcessingError,
	}

	for _, code := range allCodes {
		t.Run(string(code), func(t *testing.T) {
			info, ok := ErrorCodeRegistry[code]
			assert.True(t, ok, "ErrorCode %s should be in registry", code)
			assert.Equal(t, code, info.Code)
			assert.NotEmpty(t, info.Description)
			assert.NotEmpty(t, info.SuggestedAction)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.False(t, IsRetryable(ErrTranscriptInvalid))
	assert.False(t, IsRetryable(ErrorCode("nope")))
}

func TestGetDescriptionAndAction_Unknown(t *testing.T) {
	assert.Equal(t, "Unknown error", GetDescription(ErrorCode("nope")))
	assert.NotEmpty(t, GetSuggestedAction(ErrorCode("nope")))
	assert.Contains(t, GetSuggestedAction(ErrTranscriptInvalid), "minutes transcribe")
}
