// Package errors holds the classified failures returned by the card fetch
// client. Every failure carries one of three kinds so callers (and the error
// presenter) can branch on it without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Kind is the stable identifier of a failure class.
type Kind string

const (
	// KindInvalidURL means host, path and query could not form a request target.
	KindInvalidURL Kind = "invalidURL"
	// KindInvalidResponse means the server answered with a non-2xx status.
	KindInvalidResponse Kind = "invalidResponse"
	// KindDecodingFailed means a 2xx body did not match the expected shape.
	KindDecodingFailed Kind = "decodingFailed"
)

// Kinds lists every failure kind in declaration order.
var Kinds = []Kind{KindInvalidURL, KindInvalidResponse, KindDecodingFailed}

// Sentinels usable with errors.Is.
var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidResponse = errors.New("invalid response")
	ErrDecodingFailed  = errors.New("decoding failed")
)

// Sentinel returns the sentinel error for k, or nil for an unknown kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindInvalidURL:
		return ErrInvalidURL
	case KindInvalidResponse:
		return ErrInvalidResponse
	case KindDecodingFailed:
		return ErrDecodingFailed
	default:
		return nil
	}
}

// FetchError is a classified failure of one fetch call.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.URL != "" {
		msg += " [" + e.URL + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// NewInvalidURL creates an invalidURL failure.
func NewInvalidURL(message string, err error) *FetchError {
	return &FetchError{Kind: KindInvalidURL, Message: message, Err: err}
}

// NewInvalidResponse creates an invalidResponse failure for a rejected status.
func NewInvalidResponse(url string, statusCode int) *FetchError {
	return &FetchError{
		Kind:       KindInvalidResponse,
		URL:        url,
		StatusCode: statusCode,
		Message:    "unexpected status code",
	}
}

// NewDecodingFailed creates a decodingFailed failure wrapping the decoder error.
func NewDecodingFailed(url string, err error) *FetchError {
	return &FetchError{Kind: KindDecodingFailed, URL: url, Message: "response body does not match expected shape", Err: err}
}

// KindOf reports the failure kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}
