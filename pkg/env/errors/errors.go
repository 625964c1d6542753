package errors

import "errors"

var (
	ErrNotInteger = errors.New("non-integer environment variable")
)
