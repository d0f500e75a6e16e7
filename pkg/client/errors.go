package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
)

const (
	MessageNetwork    = "Network error, please try again."
	MessageUnexpected = "Something went wrong. Please try again."
)

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NetworkError wraps a transport failure: timeout, refused connection, reset.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// APIError is a non-2xx response. Message is the server's text, unchanged.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the text a toast shows for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	var networkErr *NetworkError
	var apiErr *APIError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &networkErr):
		return MessageNetwork
	case errors.As(err, &apiErr):
		if apiErr.Message == "" {
			return MessageUnexpected
		}
		return apiErr.Message
	default:
		return MessageUnexpected
	}
}
