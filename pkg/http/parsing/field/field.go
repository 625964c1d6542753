package field

import (
	_ "embed"
	"fmt"

	goabnf "github.com/pandatix/go-abnf"

	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	"github.com/Motmedel/response_writer_go/pkg/errors/types/empty_error"
	motmedelHttpErrors "github.com/Motmedel/response_writer_go/pkg/http/errors"
	"github.com/Motmedel/response_writer_go/pkg/http/parsing"
)

//go:embed grammar.txt
var grammar []byte

var Grammar *goabnf.Grammar

func matches(data []byte, rulename string) (bool, error) {
	paths, err := parsing.Parse(Grammar, data, rulename)
	if err != nil {
		return false, err
	}
	return len(paths) != 0, nil
}

// asciiRuns splits data around its obs-text bytes (%x80-FF), which go-abnf cannot express as a range.
func asciiRuns(data []byte) [][]byte {
	var runs [][]byte

	start := 0
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] < 0x80 {
			continue
		}
		if i > start {
			runs = append(runs, data[start:i])
		}
		start = i + 1
	}

	return runs
}

// ValidateName checks that name is an RFC 9110 field-name (a token).
func ValidateName(name string) error {
	if name == "" {
		return motmedelErrors.NewWithTrace(empty_error.New("header name"))
	}

	ok, err := matches([]byte(name), "field-name")
	if err != nil {
		return motmedelErrors.New(fmt.Errorf("matches (field name): %w", err), name)
	}
	if !ok {
		return motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w", motmedelErrors.ErrSyntaxError, motmedelHttpErrors.ErrInvalidHeaderName),
			name,
		)
	}

	return nil
}

// ValidateValue checks that value is an RFC 9110 field-value, which rules out CR, LF and other controls. Bytes of
// %x80-FF are accepted as obs-text; the ASCII runs between them must each be a field-value.
func ValidateValue(value string) error {
	if value == "" {
		return nil
	}

	for _, run := range asciiRuns([]byte(value)) {
		ok, err := matches(run, "field-value")
		if err != nil {
			return motmedelErrors.New(fmt.Errorf("matches (field value): %w", err), value)
		}
		if !ok {
			return motmedelErrors.NewWithTrace(
				fmt.Errorf("%w: %w", motmedelErrors.ErrSyntaxError, motmedelHttpErrors.ErrInvalidHeaderValue),
				value,
			)
		}
	}

	return nil
}

func init() {
	var err error
	Grammar, err = goabnf.ParseABNF(grammar)
	if err != nil {
		panic(fmt.Sprintf("goabnf parse abnf (field grammar): %v", err))
	}
}
