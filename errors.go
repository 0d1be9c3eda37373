package imageedit

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failure of ingestion or an edit request.
type ErrorKind string

const (
	KindInvalidFileType   ErrorKind = "invalid_file_type"
	KindReadFailure       ErrorKind = "read_failure"
	KindSafetyBlocked     ErrorKind = "safety_blocked"
	KindNoImageReturned   ErrorKind = "no_image_returned"
	KindRemoteCallFailure ErrorKind = "remote_call_failure"
	KindUnknownFailure    ErrorKind = "unknown_failure"
)

// User-facing messages for each failure kind.
const (
	MsgInvalidFileType  = "Please select a valid image file."
	MsgSafetyBlocked    = "Image generation was blocked due to safety policies. Please try a different prompt."
	MsgNoImageReturned  = "No image was generated. The model did not return an image."
	MsgUnknownFailure   = "An unknown error occurred while generating the image."
	msgRemoteCallPrefix = "Failed to generate image: "
)

// Error is the typed failure returned by Ingest and Editor.RequestEdit.
// Message is suitable for showing to the user as-is.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // Underlying cause, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the exported
// sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks against the failure taxonomy.
var (
	ErrInvalidFileType   = &Error{Kind: KindInvalidFileType, Message: MsgInvalidFileType}
	ErrReadFailure       = &Error{Kind: KindReadFailure, Message: "failed to read file"}
	ErrSafetyBlocked     = &Error{Kind: KindSafetyBlocked, Message: MsgSafetyBlocked}
	ErrNoImageReturned   = &Error{Kind: KindNoImageReturned, Message: MsgNoImageReturned}
	ErrRemoteCallFailure = &Error{Kind: KindRemoteCallFailure, Message: "remote call failed"}
	ErrUnknownFailure    = &Error{Kind: KindUnknownFailure, Message: MsgUnknownFailure}
)

// KindOf returns the ErrorKind carried by err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newReadFailure(err error) *Error {
	return &Error{Kind: KindReadFailure, Message: err.Error(), Err: err}
}

// wrapRemoteFailure converts any failure of the remote call into
// RemoteCallFailure, or UnknownFailure when the cause has no message.
func wrapRemoteFailure(err error) *Error {
	if err == nil || err.Error() == "" {
		return &Error{Kind: KindUnknownFailure, Message: MsgUnknownFailure, Err: err}
	}
	return &Error{
		Kind:    KindRemoteCallFailure,
		Message: msgRemoteCallPrefix + err.Error(),
		Err:     err,
	}
}

// RateLimitError is returned when a rate limit is hit, either by the local
// limiter or by the provider.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limit exceeded for %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// Session and storage errors.
var (
	// ErrNoImage is returned when an edit is submitted before an image is loaded.
	ErrNoImage = errors.New("no image loaded")

	// ErrEditInFlight is returned when an edit is submitted while another is running.
	ErrEditInFlight = errors.New("an edit is already in progress")

	// ErrNoResult is returned when saving before an edit has completed.
	ErrNoResult = errors.New("no edited image to save")

	// ErrStorageNotConfigured is returned when storage operations are attempted
	// without a configured storage backend.
	ErrStorageNotConfigured = errors.New("storage not configured")

	// ErrProviderNotConfigured is returned when a provider lacks required config.
	ErrProviderNotConfigured = errors.New("provider not configured")
)
