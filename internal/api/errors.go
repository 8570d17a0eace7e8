package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrConnection is returned when the server could not be reached.
var ErrConnection = errors.New("failed to connect to the server")

// Banner texts for errors that carry no server detail.
const (
	ConnectionMessage = "Failed to connect to the server. Please try again."
	GenericMessage    = "Something went wrong. Please try again."
)

// Error is a non-2xx response. Detail is the server's "detail" field and is
// empty when the body could not be parsed.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// StatusCode returns the HTTP status of err, or 0 if err is not an *Error.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message maps any error returned by the client to banner text. Server
// details are surfaced verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return GenericMessage
	case errors.Is(err, ErrConnection), errors.Is(err, context.DeadlineExceeded):
		return ConnectionMessage
	default:
		return GenericMessage
	}
}
