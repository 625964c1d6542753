package empty_error

import "github.com/Motmedel/response_writer_go/pkg/errors"

// Error reports a field that must not be empty.
type Error struct {
	Field string
}

func (e *Error) Error() string {
	return "empty " + e.Field
}

func (e *Error) Is(target error) bool {
	return target == errors.ErrSemanticError
}

func New(field string) *Error {
	return &Error{Field: field}
}
