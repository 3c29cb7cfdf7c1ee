package errs

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")

	// Validation
	ErrUsernameInvalid   = errors.New("username is missing")
	ErrSessionInvalid    = errors.New("session id is missing")
	ErrSubmissionInvalid = errors.New("submission id is missing")
	ErrMetadataInvalid   = errors.New("image metadata is invalid")
	ErrChunkInvalid      = errors.New("image chunk is invalid")
	ErrUnexpectedFrame   = errors.New("unexpected frame")
	ErrSizeMismatch      = errors.New("received bytes do not match declared size")

	// Lookup
	ErrAccountNotFound    = errors.New("account not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSubmissionNotFound = errors.New("submission not found")

	// Submission lifecycle
	ErrSubmissionNotReady = errors.New("submission is not ready")
	ErrSubmissionFailed   = errors.New("submission encountered an error")
	ErrInvalidTransition  = errors.New("invalid submission state transition")

	// Pipeline
	ErrNoTextDetected   = errors.New("no text detected")
	ErrMissingAttribute = errors.New("message attribute is missing")
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrImageNotFound    = errors.New("image not found")

	// Compute operations
	ErrOperationFailed  = errors.New("compute operation failed")
	ErrOperationTimeout = errors.New("compute operation did not complete in time")
)
