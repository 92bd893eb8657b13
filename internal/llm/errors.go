package llm

import "errors"

var (
	// ErrUnavailable indicates the generation service is unreachable.
	ErrUnavailable = errors.New("generation service unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("generation request timed out")

	// ErrInvalidOutput indicates the response could not be parsed into
	// the expected structured format.
	ErrInvalidOutput = errors.New("invalid generation output format")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("generation retry attempts exhausted")

	// ErrMissingAPIKey indicates no API key was configured.
	ErrMissingAPIKey = errors.New("generation api key not configured")
)
