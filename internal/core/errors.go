package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classification with errors.Is. The typed errors below
// match them through their Is methods.
var (
	// ErrNotFound reports that a requested worksheet, table or document
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedRange reports a column_range that is not "LETTER:LETTER".
	ErrMalformedRange = errors.New("malformed column range")

	// ErrInvalidRequest reports a caller input error other than a bad range.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUpstream reports a failed call to a source provider.
	ErrUpstream = errors.New("upstream failure")

	// ErrSourceNotFound is returned by source clients when the provider
	// answers "not found". The service turns it into a NotFoundError.
	ErrSourceNotFound = errors.New("source: not found")
)

// NotFoundError is returned when a key has no match among a source's names.
// Available lists the keys that would have matched.
type NotFoundError struct {
	Kind      string // "worksheet", "spreadsheet", "table", "document"
	Key       string
	Available []string
}

func (e *NotFoundError) Error() string {
	kind := e.Kind
	if kind != "" {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s not found: %s", kind, e.Key)
	}
	return fmt.Sprintf("%s not found. Available options: %s", kind, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// MalformedRangeError is returned for an unparseable column range.
type MalformedRangeError struct {
	Input  string
	Reason string
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("malformed column range %q: %s", e.Input, e.Reason)
}

func (e *MalformedRangeError) Is(target error) bool { return target == ErrMalformedRange }

// InvalidRequestError is returned for an out-of-range or unparseable
// request parameter.
type InvalidRequestError struct {
	Param  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Param, e.Reason)
}

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

// UpstreamError wraps a provider failure. It is propagated as is: never
// retried and never cached.
type UpstreamError struct {
	Source string // "google", "grist"
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure: %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
