package client

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is a stable label for a failed fetch, used for fallback logging
// and as a metric label.
type ErrorKind string

const (
	KindNetwork      ErrorKind = "network"
	KindParse        ErrorKind = "parse"
	KindMissingField ErrorKind = "missing_field"
	KindUnexpected   ErrorKind = "unexpected"
)

var (
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrMissingField    = errors.New("required field missing")
)

// FetchError is the failure variant of a fetch. Every error returned by
// WttrClient.Fetch is a *FetchError.
type FetchError struct {
	Kind ErrorKind
	// Field names the absent or malformed field for missing_field and
	// coercion failures, e.g. "weather[0].hourly[0].chanceofrain".
	Field string
	Err   error
}

func (e *FetchError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s error: field %s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func networkError(err error) *FetchError {
	return &FetchError{Kind: KindNetwork, Err: err}
}

func parseError(err error) *FetchError {
	return &FetchError{Kind: KindParse, Err: err}
}

func missingFieldError(field string) *FetchError {
	return &FetchError{Kind: KindMissingField, Field: field, Err: ErrMissingField}
}

func unexpectedError(field string, err error) *FetchError {
	return &FetchError{Kind: KindUnexpected, Field: field, Err: err}
}

// KindOf maps an error to its ErrorKind. Errors that did not come from Fetch
// are classified as network when they are context deadline/cancel errors and
// unexpected otherwise.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	return KindUnexpected
}
