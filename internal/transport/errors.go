package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches errors for responses with status 401.
	ErrUnauthorized = errors.New("transport: unauthorized")
	// ErrUnreachable matches errors where no response was received.
	ErrUnreachable = errors.New("transport: no response")
)

// Error is the normalized failure shape: the API's {code, msg} envelope plus
// the HTTP status (0 when no response was received).
type Error struct {
	Status int    `json:"-"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`

	cause error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("transport: request failed: %s", e.Msg)
	}
	if e.Msg != "" {
		return fmt.Sprintf("transport: %s (status=%d code=%d)", e.Msg, e.Status, e.Code)
	}
	return fmt.Sprintf("transport: http status %d", e.Status)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrUnreachable:
		return e.Status == 0
	}
	return false
}

// Retryable reports whether repeating the request may succeed: network
// failures, 429 and 5xx. Client errors and cancellations are final.
func (e *Error) Retryable() bool {
	if e.Status == 0 {
		return !errors.Is(e.cause, context.Canceled)
	}
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// AsError extracts the normalized error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasMessage reports whether err carries the given API msg.
func HasMessage(err error, msg string) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Msg == msg
}

func decodeError(status int, body []byte) *Error {
	var parsed Error
	if err := json.Unmarshal(body, &parsed); err != nil || (parsed.Msg == "" && parsed.Code == 0) {
		return &Error{Status: status, Code: status, Msg: strings.TrimSpace(string(body))}
	}
	parsed.Status = status
	if parsed.Code == 0 {
		parsed.Code = status
	}
	return &parsed
}
