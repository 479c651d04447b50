// # Error Codes Reference
//
// This file defines user-facing error messages with codes for support
// reference. Callers of the HTTP API and the CLI see the code next to the
// message and can quote it when reporting a problem.
//
// Error codes are grouped by category:
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Not found: The requested worksheet, table or document does not exist
//	         Action: Use one of the available names listed in the response
//	         Matches: ErrNotFound
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Malformed range: column_range must look like "A:C"
//	         Action: Use two single column letters separated by a colon
//	         Matches: ErrMalformedRange
//
//	REQ002 - Invalid parameter: A query parameter is out of range
//	         Action: Check skip_rows (>= 0) and header_row_index (>= 1)
//	         Matches: ErrInvalidRequest
//
// # Upstream Errors (UPS001-UPS099)
//
//	UPS001 - Upstream failure: The source provider request failed
//	         Action: Please try again later
//	         Matches: ErrUpstream
//
//	UPS002 - Access denied: The source provider refused access
//	         Action: Share the document with the service account or check the API key
//	         Patterns: "permission", "forbidden", "unauthorized"
//
//	UPS003 - Quota exceeded: The source provider is throttling requests
//	         Action: Please wait a minute before trying again
//	         Patterns: "quota", "too many requests"
//
// # Capacity Errors (FET001-FET099, RATE001-RATE099)
//
//	FET001 - System busy: Too many fetches in progress
//	         Action: Please wait a moment and try again
//	         Matches: ErrTooManyFetches
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
//	TIME001 - Request timeout: The request took too long
//	          Action: Try again, or request a smaller range
//	          Patterns: "context deadline exceeded", "timeout"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Sentinel errors are checked first with errors.Is. Remaining errors are
// matched case-insensitively against the pattern table with strings.Contains;
// the first matching pattern wins. An error that only wraps ErrUpstream
// falls through to UPS001 after the patterns had a chance to be more
// specific.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorKind maps a sentinel error to its user message.
type errorKind struct {
	target error
	msg    UserMessage
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorKinds = []errorKind{
	{
		target: ErrNotFound,
		msg: UserMessage{
			Message: "The requested worksheet or table was not found",
			Action:  "Use one of the available names listed in the response",
			Code:    "SRC001",
		},
	},
	{
		target: ErrMalformedRange,
		msg: UserMessage{
			Message: `column_range must look like "A:C"`,
			Action:  "Use two single column letters separated by a colon",
			Code:    "REQ001",
		},
	},
	{
		target: ErrInvalidRequest,
		msg: UserMessage{
			Message: "A query parameter is out of range",
			Action:  "Check skip_rows (>= 0) and header_row_index (>= 1)",
			Code:    "REQ002",
		},
	},
	{
		target: ErrTooManyFetches,
		msg: UserMessage{
			Message: "Too many fetches in progress",
			Action:  "Please wait a moment and try again",
			Code:    "FET001",
		},
	},
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Upstream Access Errors (UPS002-UPS003)
	// Reported by Google or Grist inside the wrapped provider error.
	// =========================================================================
	{
		pattern: "permission",
		msg: UserMessage{
			Message: "The source provider refused access",
			Action:  "Share the document with the service account or check the API key",
			Code:    "UPS002",
		},
	},
	{
		pattern: "forbidden",
		msg: UserMessage{
			Message: "The source provider refused access",
			Action:  "Share the document with the service account or check the API key",
			Code:    "UPS002",
		},
	},
	{
		pattern: "unauthorized",
		msg: UserMessage{
			Message: "The source provider refused access",
			Action:  "Share the document with the service account or check the API key",
			Code:    "UPS002",
		},
	},
	{
		pattern: "quota",
		msg: UserMessage{
			Message: "The source provider is throttling requests",
			Action:  "Please wait a minute before trying again",
			Code:    "UPS003",
		},
	},
	{
		pattern: "too many requests",
		msg: UserMessage{
			Message: "The source provider is throttling requests",
			Action:  "Please wait a minute before trying again",
			Code:    "UPS003",
		},
	},

	// =========================================================================
	// Request Lifecycle Errors (RATE001, TIME001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request took too long",
			Action:  "Try again, or request a smaller range",
			Code:    "TIME001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The request took too long",
			Action:  "Try again, or request a smaller range",
			Code:    "TIME001",
		},
	},
}

var upstreamMessage = UserMessage{
	Message: "The source provider request failed",
	Action:  "Please try again later",
	Code:    "UPS001",
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(&MalformedRangeError{Input: "A-C"})
//	// msg.Code == "REQ001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if errors.Is(err, ErrUpstream) {
		return upstreamMessage
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
