package strings

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
)

func byteSliceFromAny(a any) ([]byte, bool) {
	if bs, ok := a.([]byte); ok {
		return bs, true
	}
	t := reflect.TypeOf(a)
	if t != nil && t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return reflect.ValueOf(a).Bytes(), true
	}
	return nil, false
}

// MakeTextualRepresentation renders an error input value for a log record.
func MakeTextualRepresentation(value any) (string, error) {
	switch typedValue := value.(type) {
	case string:
		return typedValue, nil
	case time.Time:
		return typedValue.Format(time.RFC3339), nil
	case fmt.Stringer:
		return typedValue.String(), nil
	}

	if tm, ok := value.(encoding.TextMarshaler); ok {
		data, err := tm.MarshalText()
		if err != nil {
			return "", motmedelErrors.New(fmt.Errorf("marshal text: %w", err), value)
		}
		return string(data), nil
	}

	if bs, ok := byteSliceFromAny(value); ok {
		return string(bs), nil
	}

	return fmt.Sprintf("%#v", value), nil
}
