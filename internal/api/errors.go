package api

import (
	"errors"
	"fmt"
)

// The four outcomes of talking to the API. Every call through Client resolves
// to success or exactly one of TransportError, StatusError, DecodeError.
// ConfigurationError is reserved for malformed static configuration and should
// abort startup instead of being handled per call.

type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request did not complete: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.Code)
}

type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("response body did not match expected schema: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a
// StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
