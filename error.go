package harvest

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes. Fetch and route failures use the kind names that surface in
// the structured error payload.
const (
	ETIMEOUT  = "Timeout"
	ETOOLARGE = "TooLarge"
	ENOTFOUND = "NotFound"
	EMISMATCH = "TypeMismatch"
	EUNKNOWN  = "Unknown"

	ENOROUTE = "NoRouteMatched"
	ENOINDEX = "NoIndexScraper"

	EINVALID  = "Invalid"
	EINTERNAL = "Internal"
)

// Default messages for fetch failures.
const (
	MsgTimeout  = "Request timed out to origin server"
	MsgTooLarge = "Resource is too large to be parsed."
	MsgMismatch = "Requested resource is not of a desired type."
	MsgNotFound = "Page not found"
	MsgUnknown  = "Unexpected error"
)

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("harvest error: code=%s message=%s", e.Code, e.Message)
}

// MarshalJSON encodes the error as its {kind, message, status} payload.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(ErrorPayload{Kind: e.Code, Message: e.Message, Status: e.Status})
}

// ErrorPayload is the user-visible shape of a failure.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Errorf returns an Error with the given code and formatted message.
// The status is derived from the code.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Status:  statusFor(code),
	}
}

// FetchError returns an Error for a fetch failure kind with its default message.
func FetchError(code string) *Error {
	msg := MsgUnknown
	switch code {
	case ETIMEOUT:
		msg = MsgTimeout
	case ETOOLARGE:
		msg = MsgTooLarge
	case EMISMATCH:
		msg = MsgMismatch
	case ENOTFOUND:
		msg = MsgNotFound
	}
	return &Error{Code: code, Message: msg, Status: statusFor(code)}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorStatus unwraps an application error and returns its status.
func ErrorStatus(err error) int {
	var e *Error
	if err == nil {
		return 0
	} else if errors.As(err, &e) {
		return e.Status
	}
	return 500
}

// Payload returns the structured payload for any error.
func Payload(err error) ErrorPayload {
	return ErrorPayload{
		Kind:    ErrorCode(err),
		Message: ErrorMessage(err),
		Status:  ErrorStatus(err),
	}
}

func statusFor(code string) int {
	switch code {
	case EUNKNOWN, EINVALID:
		return 400
	default:
		return 500
	}
}
