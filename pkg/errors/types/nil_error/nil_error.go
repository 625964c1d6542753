package nil_error

// Error reports a value that must not be nil.
type Error struct {
	Field string
}

func (e *Error) Error() string {
	return "nil " + e.Field
}

func New(field string) *Error {
	return &Error{Field: field}
}
