package errors

import (
	"errors"
)

var (
	ErrNilStream              = errors.New("nil stream")
	ErrConsumedResponseWriter = errors.New("consumed response writer")
	ErrInvalidStatusCode      = errors.New("invalid status code")
	ErrInvalidHeaderName      = errors.New("invalid header name")
	ErrInvalidHeaderValue     = errors.New("invalid header value")
	ErrInvalidVersion         = errors.New("invalid http version")
	ErrInvalidHttpDate        = errors.New("invalid http date")
	ErrParserPanic            = errors.New("parser panic")
)

// StreamWriteError reports which part of the response was being written when the stream failed.
type StreamWriteError struct {
	Part  string
	Cause error
}

func (streamWriteError *StreamWriteError) Error() string {
	return "stream write (" + streamWriteError.Part + ")"
}

func (streamWriteError *StreamWriteError) GetCause() error {
	return streamWriteError.Cause
}

func (streamWriteError *StreamWriteError) Unwrap() error {
	return streamWriteError.Cause
}
