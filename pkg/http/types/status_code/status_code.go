package status_code

import (
	"fmt"
	"net/http"
	"strconv"

	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	motmedelHttpErrors "github.com/Motmedel/response_writer_go/pkg/http/errors"
)

// StatusCode is a three-digit HTTP status code.
type StatusCode int

const Default StatusCode = http.StatusOK

// New returns code as a StatusCode if it has exactly three digits.
func New(code int) (StatusCode, error) {
	statusCode := StatusCode(code)
	if !statusCode.Valid() {
		return 0, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w", motmedelErrors.ErrSemanticError, motmedelHttpErrors.ErrInvalidStatusCode),
			code,
		)
	}
	return statusCode, nil
}

func (statusCode StatusCode) Valid() bool {
	return statusCode >= 100 && statusCode <= 999
}

// Reason is the registered reason phrase, empty for unregistered codes.
func (statusCode StatusCode) Reason() string {
	return http.StatusText(int(statusCode))
}

// Class is the first digit of the code, e.g. 4 for client errors.
func (statusCode StatusCode) Class() int {
	return int(statusCode) / 100
}

// String renders the code and its reason phrase as they appear in a status line. An unregistered code keeps the
// separating space, which leaves an empty reason-phrase.
func (statusCode StatusCode) String() string {
	return strconv.Itoa(int(statusCode)) + " " + statusCode.Reason()
}
