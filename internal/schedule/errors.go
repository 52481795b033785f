package schedule

import (
	"fmt"
	"runtime/debug"
)

// Kind tags a pipeline failure with the stage family that produced it.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindAuthentication
	KindSiteResolution
	KindFileNotFound
	KindDownload
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindSiteResolution:
		return "SiteResolutionError"
	case KindFileNotFound:
		return "FileNotFoundError"
	case KindDownload:
		return "DownloadError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single error type the pipeline returns. Message is safe to
// show to callers; Err keeps the underlying cause for logs and errors.Is.
type Error struct {
	Kind    Kind
	State   State // stage that was running when the failure happened
	Message string
	Status  int // upstream HTTP status, 0 when none was received
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds a tagged error and captures the current goroutine stack
// for development-mode responses.
func newError(kind Kind, state State, status int, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		State:   state,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
		Err:     cause,
		Stack:   debug.Stack(),
	}
}
