package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Retryable       bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	ErrTimeout: {
		Code:            ErrTimeout,
		Retryable:       true,
		Description:     "Stage exceeded its time limit",
		SuggestedAction: "Raise the limit with --timeout or MINUTES_TIMEOUT",
	},
	ErrContextCancelled: {
		Code:            ErrContextCancelled,
		Retryable:       false,
		Description:     "Stage cancelled by user or signal",
		SuggestedAction: "Re-run the stage; no output was written",
	},
	ErrRateLimit: {
		Code:            ErrRateLimit,
		Retryable:       true,
		Description:     "Provider rate limit exceeded",
		SuggestedAction: "Wait and re-run, or check quota limits with the provider",
	},
	ErrServiceUnavailable: {
		Code:            ErrServiceUnavailable,
		Retryable:       true,
		Description:     "Speech, summarization or cache service unreachable",
		SuggestedAction: "Check network access and the configured base URL",
	},
	ErrToolMissing: {
		Code:            ErrToolMissing,
		Retryable:       false,
		Description:     "Required executable not found on PATH",
		SuggestedAction: "Install ffmpeg/tesseract/whisper or set ffmpeg_path, ocr.tesseract_path, transcription.whisper_path",
	},
	ErrExternalFailure: {
		Code:            ErrExternalFailure,
		Retryable:       false,
		Description:     "External collaborator failed",
		SuggestedAction: "Re-run with --debug to see the collaborator diagnostic",
	},
	ErrTranscriptInvalid: {
		Code:            ErrTranscriptInvalid,
		Retryable:       false,
		Description:     "Transcript is malformed (missing segments or fields)",
		SuggestedAction: "Regenerate it with: minutes transcribe <video_file>",
	},
	ErrConfigurationInvalid: {
		Code:            ErrConfigurationInvalid,
		Retryable:       false,
		Description:     "Configuration value out of range",
		SuggestedAction: "Check ~/.minutes/config.yaml and MINUTES_* environment variables",
	},
	ErrProcessingError: {
		Code:            ErrProcessingError,
		Retryable:       false,
		Description:     "Unclassified processing error",
		SuggestedAction: "Re-run with --debug for details",
	},
}

// IsRetryable returns true if the given error code represents a transient error.
func IsRetryable(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Retryable
	}
	return false
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug for details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
