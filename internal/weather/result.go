package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a provider query produced no data.
type ErrorKind string

const (
	KindMalformedRequest       ErrorKind = "malformed_request"
	KindTransport              ErrorKind = "transport"
	KindUnparsableResponse     ErrorKind = "unparsable_response"
	KindUnauthorizedCredential ErrorKind = "unauthorized_credential"
	KindLocationUnavailable    ErrorKind = "location_unavailable"
)

func (k ErrorKind) Valid() bool {
	switch k {
	case KindMalformedRequest, KindTransport, KindUnparsableResponse,
		KindUnauthorizedCredential, KindLocationUnavailable:
		return true
	}
	return false
}

// FetchError describes a failed query. It is stored as data in a QueryResult; it implements
// error so callers can wrap and inspect it with the errors package.
type FetchError struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode *int      `json:"statusCode,omitempty"`
	Message    string    `json:"message,omitempty"`
}

func (e *FetchError) Error() string {
	msg := string(e.Kind)
	if e.StatusCode != nil {
		msg = fmt.Sprintf("%s (status %d)", msg, *e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is matches on Kind, so errors.Is(err, &FetchError{Kind: KindTransport}) works.
func (e *FetchError) Is(target error) bool {
	var t *FetchError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func statusPtr(code int) *int { return &code }

func MalformedRequest(msg string) *FetchError {
	return &FetchError{Kind: KindMalformedRequest, Message: msg}
}

// TransportError is a network or HTTP failure. status is nil for timeouts and connection
// errors.
func TransportError(status *int, msg string) *FetchError {
	e := &FetchError{Kind: KindTransport, Message: msg}
	if status != nil {
		e.StatusCode = statusPtr(*status)
	}
	return e
}

func TransportStatus(status int, msg string) *FetchError {
	return &FetchError{Kind: KindTransport, StatusCode: statusPtr(status), Message: msg}
}

func UnparsableResponse(msg string) *FetchError {
	return &FetchError{Kind: KindUnparsableResponse, Message: msg}
}

func UnauthorizedCredential(status int) *FetchError {
	return &FetchError{Kind: KindUnauthorizedCredential, StatusCode: statusPtr(status)}
}

func LocationUnavailable() *FetchError {
	return &FetchError{Kind: KindLocationUnavailable, Message: "current location is not known"}
}

// QueryResult is the outcome of one provider query: a value or an error, never both.
// The zero value is the "nothing produced" case, which the merge step ignores.
type QueryResult[T any] struct {
	Value *T          `json:"value,omitempty"`
	Err   *FetchError `json:"error,omitempty"`
}

func Success[T any](v T) QueryResult[T] {
	return QueryResult[T]{Value: &v}
}

func Failure[T any](err *FetchError) QueryResult[T] {
	return QueryResult[T]{Err: err}
}

func (r QueryResult[T]) IsEmpty() bool { return r.Value == nil && r.Err == nil }

func (r QueryResult[T]) OK() bool { return r.Value != nil && r.Err == nil }

// Validate enforces the one-of invariant.
func (r QueryResult[T]) Validate() error {
	switch {
	case r.Value != nil && r.Err != nil:
		return errors.New("query result holds both a value and an error")
	case r.IsEmpty():
		return errors.New("query result is empty")
	case r.Err != nil && !r.Err.Kind.Valid():
		return fmt.Errorf("unknown error kind %q", r.Err.Kind)
	}
	return nil
}

// Outcome is a short label for logs and metrics: "ok", an error kind, or "empty".
func (r QueryResult[T]) Outcome() string {
	switch {
	case r.Err != nil:
		return string(r.Err.Kind)
	case r.Value != nil:
		return "ok"
	}
	return "empty"
}
