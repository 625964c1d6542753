package date

import (
	"fmt"
	"net/http"
	"time"

	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	motmedelHttpErrors "github.com/Motmedel/response_writer_go/pkg/http/errors"
)

// Clock provides the current wall-clock time.
type Clock func() time.Time

var DefaultClock Clock = time.Now

// Format renders t in UTC as an IMF-fixdate, e.g. "Sun, 06 Nov 1994 08:49:37 GMT".
func Format(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

func Parse(value string) (time.Time, error) {
	t, err := time.Parse(http.TimeFormat, value)
	if err != nil {
		return time.Time{}, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w: time parse: %w", motmedelErrors.ErrSyntaxError, motmedelHttpErrors.ErrInvalidHttpDate, err),
			value,
		)
	}
	return t, nil
}
