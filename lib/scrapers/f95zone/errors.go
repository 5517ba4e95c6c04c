package f95zone

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure class with a stable value.
type ErrorCode int

const (
	CodeMalformedURL ErrorCode = iota + 1
	CodeNetworkFailure
	CodeUnexpectedContentType
	CodeInvalidToken
	CodeNoPreviousSession
	CodeStorageFailure
	CodeSessionNotFound
	CodeCorruptSessionData
	CodeLoginStateUnknown
)

func (c ErrorCode) String() string {
	switch c {
	case CodeMalformedURL:
		return "malformed_url"
	case CodeNetworkFailure:
		return "network_failure"
	case CodeUnexpectedContentType:
		return "unexpected_content_type"
	case CodeInvalidToken:
		return "invalid_token"
	case CodeNoPreviousSession:
		return "no_previous_session"
	case CodeStorageFailure:
		return "storage_failure"
	case CodeSessionNotFound:
		return "session_not_found"
	case CodeCorruptSessionData:
		return "corrupt_session_data"
	case CodeLoginStateUnknown:
		return "login_state_unknown"
	}
	return "unknown"
}

// Error is the typed failure carried by every Result the client returns.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// HasCode reports whether err is (or wraps) a client Error with the
// given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
