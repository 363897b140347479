package elasticsearch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDocumentNotFound signals a missing document at the typed-index layer.
var ErrDocumentNotFound = errors.New("document not found")

// ValidationError reports request validation failures detected before any
// network activity. The transport is never invoked for an invalid request.
type ValidationError struct {
	// Errors lists every violation, not just the first.
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Errors, "; "))
}

// addValidation appends a violation to err, allocating it on first use.
// Request Validate methods accumulate into a nil *ValidationError and
// return it via validationResult.
func addValidation(err *ValidationError, msg string) *ValidationError {
	if err == nil {
		err = &ValidationError{}
	}
	err.Errors = append(err.Errors, msg)
	return err
}

// validationResult converts an accumulated *ValidationError into a plain
// error, avoiding the typed-nil-in-interface trap.
func validationResult(err *ValidationError) error {
	if err == nil {
		return nil
	}
	return err
}

// DecodeError reports a failure to decode an expected-success response:
// a missing or unsupported content type, a malformed body, or an
// unregistered variant name. It signals a protocol or version mismatch
// between client and server and is never swallowed on the success path.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ConfigurationError reports invalid client construction, such as a
// duplicate variant decoder key. It is detected at construction time,
// never at dispatch time.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Reason)
}

// ServerError is the normalized failure for a transport-reported error
// status. When the response carried a parseable error envelope, Type and
// Reason hold the server-reported detail; otherwise Reason falls back to
// the transport-level status text. Suppressed records a secondary fact
// (a failed fallback decode or a failed envelope parse) without competing
// with the primary error.
type ServerError struct {
	StatusCode int
	Type       string
	Reason     string
	Suppressed error
}

func (e *ServerError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("server error (HTTP %d): %s: %s", e.StatusCode, e.Type, e.Reason)
	}
	return fmt.Sprintf("server error (HTTP %d): %s", e.StatusCode, e.Reason)
}

func (e *ServerError) Unwrap() error { return e.Suppressed }

// WarningsError reports server deprecation warnings on a call made in
// strict warnings mode. The response body is not decoded when this is
// returned.
type WarningsError struct {
	Warnings []string
}

func (e *WarningsError) Error() string {
	return fmt.Sprintf("server returned %d warning(s): %s",
		len(e.Warnings), strings.Join(e.Warnings, "; "))
}
