package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can decide whether to retry
type Kind string

const (
	KindBrowser    Kind = "browser"
	KindNavigation Kind = "navigation"
	KindRateLimit  Kind = "rate_limit"
	KindAuth       Kind = "auth"
	KindExport     Kind = "export"
	KindConfig     Kind = "config"
	KindParsing    Kind = "parsing"
	KindServer     Kind = "server_error"
	KindUnknown    Kind = "unknown"
)

// Error is a failure tagged with its kind and the operation that produced it
type Error struct {
	Kind Kind
	Op   string
	// Code is the HTTP status of a remote API failure, 0 otherwise
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithCode creates a tagged error carrying a remote status code
func WithCode(kind Kind, op string, code int, err error) *Error {
	return &Error{Kind: kind, Op: op, Code: code, Err: err}
}

// KindOf returns the kind of the first tagged error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable checks if a kind of failure may succeed on another attempt
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindBrowser, KindNavigation, KindRateLimit, KindServer:
		return true
	case KindAuth, KindConfig, KindParsing, KindExport:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504:
		return true
	case 400, 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// KindForStatus maps an HTTP status to a kind
func KindForStatus(statusCode int) Kind {
	switch {
	case statusCode == 429:
		return KindRateLimit
	case statusCode == 401 || statusCode == 403:
		return KindAuth
	case statusCode >= 500 || statusCode == 0:
		return KindServer
	default:
		return KindExport
	}
}
