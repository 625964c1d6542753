package parsing

import (
	"fmt"

	parsingUtilsErrors "github.com/Motmedel/parsing_utils/pkg/errors"
	goabnf "github.com/pandatix/go-abnf"

	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	motmedelHttpErrors "github.com/Motmedel/response_writer_go/pkg/http/errors"
)

// Parse returns the paths by which all of data derives from rulename. go-abnf panics on some grammar defects; the
// panic is returned as an error wrapping ErrParserPanic.
func Parse(grammar *goabnf.Grammar, data []byte, rulename string) (paths []*goabnf.Path, err error) {
	if grammar == nil {
		return nil, motmedelErrors.NewWithTrace(parsingUtilsErrors.ErrNilGrammar)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			paths = nil
			err = motmedelErrors.NewWithTrace(
				fmt.Errorf("%w: %s: %v", motmedelHttpErrors.ErrParserPanic, rulename, recovered),
				data,
			)
		}
	}()

	paths, err = goabnf.Parse(data, grammar, rulename)
	if err != nil {
		return nil, motmedelErrors.NewWithTrace(fmt.Errorf("goabnf parse: %w", err), data)
	}

	return paths, nil
}
