package errors

import "errors"

var (
	ErrNilWriter = errors.New("nil writer")
	ErrNilConn   = errors.New("nil conn")
)
