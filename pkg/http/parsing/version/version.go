package version

import (
	_ "embed"
	"fmt"

	"github.com/Motmedel/parsing_utils/pkg/parsing_utils"
	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	motmedelHttpErrors "github.com/Motmedel/response_writer_go/pkg/http/errors"
	"github.com/Motmedel/response_writer_go/pkg/http/parsing"
	"github.com/Motmedel/response_writer_go/pkg/http/types/version"
	goabnf "github.com/pandatix/go-abnf"
)

//go:embed grammar.txt
var grammar []byte

var Grammar *goabnf.Grammar

func digit(data []byte, path *goabnf.Path, name string) (int, error) {
	digitPath := parsing_utils.SearchPathSingleName(path, name, 3, false)
	if digitPath == nil {
		return 0, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w: no %s", motmedelErrors.ErrSemanticError, motmedelHttpErrors.ErrInvalidVersion, name),
		)
	}

	value := parsing_utils.ExtractPathValue(data, digitPath)
	if len(value) != 1 {
		return 0, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w: %s", motmedelErrors.ErrSemanticError, motmedelHttpErrors.ErrInvalidVersion, name),
			value,
		)
	}

	return int(value[0] - '0'), nil
}

// Parse reads an HTTP-version such as "HTTP/1.1".
func Parse(data []byte) (*version.Version, error) {
	paths, err := parsing.Parse(Grammar, data, "HTTP-version")
	if err != nil {
		return nil, motmedelErrors.New(fmt.Errorf("parse (http version): %w", err), data)
	}
	if len(paths) == 0 {
		return nil, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w", motmedelErrors.ErrSyntaxError, motmedelHttpErrors.ErrInvalidVersion),
			data,
		)
	}

	path := paths[0]

	major, err := digit(data, path, "major")
	if err != nil {
		return nil, err
	}

	minor, err := digit(data, path, "minor")
	if err != nil {
		return nil, err
	}

	return &version.Version{Major: major, Minor: minor}, nil
}

func init() {
	var err error
	Grammar, err = goabnf.ParseABNF(grammar)
	if err != nil {
		panic(fmt.Sprintf("goabnf parse abnf (http version grammar): %v", err))
	}
}
