package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	ErrSyntaxError   = errors.New("syntax error")
	ErrSemanticError = errors.New("semantic error")
)

// CollectWrappedErrors returns every error reachable from err through Unwrap, breadth first, excluding err itself.
func CollectWrappedErrors(err error) []error {
	var results []error

	queue := []error{err}

	for len(queue) > 0 {
		poppedErr := queue[0]
		queue = queue[1:]

		if poppedErr == nil {
			continue
		}

		if poppedErr != err {
			results = append(results, poppedErr)
		}

		switch typedErr := poppedErr.(type) {
		case interface{ Unwrap() error }:
			if unwrappedErr := typedErr.Unwrap(); unwrappedErr != nil {
				queue = append(queue, unwrappedErr)
			}
		case interface{ Unwrap() []error }:
			for _, unwrappedErr := range typedErr.Unwrap() {
				if unwrappedErr != nil {
					queue = append(queue, unwrappedErr)
				}
			}
		}
	}

	return results
}

// captureStackTrace renders the calling goroutine's stack, dropping the frames of this package.
func captureStackTrace() string {
	buf := make([]byte, 64<<10)
	lines := strings.Split(string(buf[:runtime.Stack(buf, false)]), "\n")

	filtered := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "github.com/Motmedel/response_writer_go/pkg/errors.") {
			// The next line holds the file and line of the skipped frame.
			i++
			continue
		}
		filtered = append(filtered, lines[i])
	}

	return strings.TrimSpace(strings.Join(filtered, "\n"))
}

type InputErrorI interface {
	Error() string
	GetInput() any
}

type StackTraceErrorI interface {
	Error() string
	GetStackTrace() string
}

type ExtendedError struct {
	error
	Input      any
	StackTrace string
}

func (err *ExtendedError) GetInput() any {
	return err.Input
}

func (err *ExtendedError) GetStackTrace() string {
	return err.StackTrace
}

func (err *ExtendedError) Unwrap() error {
	return err.error
}

func makeError(e any, input ...any) *ExtendedError {
	var err error

	switch typedE := e.(type) {
	case error:
		err = typedE
	case string:
		err = errors.New(typedE)
	default:
		err = fmt.Errorf("%v", typedE)
	}

	var errInput any
	switch len(input) {
	case 0:
	case 1:
		errInput = input[0]
	default:
		errInput = input
	}

	return &ExtendedError{error: err, Input: errInput}
}

// New wraps e, an error or a message, together with the input that caused it.
func New(e any, input ...any) *ExtendedError {
	return makeError(e, input...)
}

// NewWithTrace is New with the current stack trace attached.
func NewWithTrace(e any, input ...any) *ExtendedError {
	extendedErr := makeError(e, input...)
	extendedErr.StackTrace = captureStackTrace()
	return extendedErr
}
