package log

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	motmedelContext "github.com/Motmedel/response_writer_go/pkg/context"
	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	motmedelStrings "github.com/Motmedel/response_writer_go/pkg/strings"
)

type ContextExtractor interface {
	Handle(context.Context, *slog.Record) error
}

type ContextExtractorFunction func(context.Context, *slog.Record) error

func (cef ContextExtractorFunction) Handle(ctx context.Context, record *slog.Record) error {
	return cef(ctx, record)
}

// ContextHandler lets its extractors add attributes from the context before passing a record on to Next.
type ContextHandler struct {
	Next       slog.Handler
	Extractors []ContextExtractor
}

func (contextHandler *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return contextHandler.Next.Enabled(ctx, level)
}

func (contextHandler *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, extractor := range contextHandler.Extractors {
		if extractor != nil {
			if err := extractor.Handle(ctx, &record); err != nil {
				return fmt.Errorf("extractor handle: %w", err)
			}
		}
	}
	return contextHandler.Next.Handle(ctx, record)
}

func (contextHandler *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Next: contextHandler.Next.WithAttrs(attrs), Extractors: contextHandler.Extractors}
}

func (contextHandler *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Next: contextHandler.Next.WithGroup(name), Extractors: contextHandler.Extractors}
}

type ErrorContextExtractor struct {
	SkipCause      bool
	SkipInput      bool
	SkipStackTrace bool
}

func (extractor *ErrorContextExtractor) MakeErrorAttrs(err error) []any {
	if err == nil {
		return nil
	}

	errorMessage := err.Error()
	errType := reflect.TypeOf(err).String()

	var attrs []any

	switch err.(type) {
	case *motmedelErrors.ExtendedError:
	default:
		switch errType {
		case "*errors.errorString", "*fmt.wrapError", "*fmt.wrapErrors":
		default:
			attrs = append(attrs, slog.String("type", errType))
		}
	}

	if inputError, ok := err.(motmedelErrors.InputErrorI); ok && !extractor.SkipInput {
		if input := inputError.GetInput(); input != nil {
			inputTextualRepresentation, textErr := motmedelStrings.MakeTextualRepresentation(input)
			if textErr != nil {
				slog.Warn(fmt.Sprintf("make textual representation of error input: %v", textErr))
			} else {
				attrs = append(
					attrs,
					slog.Group(
						"input",
						slog.String("value", inputTextualRepresentation),
						slog.String("type", reflect.TypeOf(input).String()),
					),
				)
			}
		}
	}

	if !extractor.SkipCause {
		wrappedErrors := motmedelErrors.CollectWrappedErrors(err)
		var lastWrappedErrorAttrs []any

		for i := len(wrappedErrors) - 1; i >= 0; i-- {
			wrappedError := wrappedErrors[i]

			switch reflect.TypeOf(wrappedError).String() {
			case "*errors.joinError", "*fmt.wrapError", "*fmt.wrapErrors":
				continue
			}

			wrappedErrorAttrs := extractor.MakeErrorAttrs(wrappedError)
			if lastWrappedErrorAttrs != nil {
				wrappedErrorAttrs = append(wrappedErrorAttrs, slog.Group("cause", lastWrappedErrorAttrs...))
			}

			lastWrappedErrorAttrs = wrappedErrorAttrs
		}

		if lastWrappedErrorAttrs != nil {
			attrs = append(attrs, slog.Group("cause", lastWrappedErrorAttrs...))
		}
	}

	if stackTraceError, ok := err.(motmedelErrors.StackTraceErrorI); ok && !extractor.SkipStackTrace {
		if stackTrace := stackTraceError.GetStackTrace(); stackTrace != "" {
			attrs = append(attrs, slog.String("stack_trace", stackTrace))
		}
	}

	if errorMessage != "" {
		attrs = append(attrs, slog.String("message", errorMessage))
	}

	return attrs
}

func (extractor *ErrorContextExtractor) Handle(ctx context.Context, record *slog.Record) error {
	if record == nil {
		return nil
	}

	if logErr, ok := ctx.Value(motmedelContext.ErrorContextKey).(error); ok {
		record.Add(slog.Group("error", extractor.MakeErrorAttrs(logErr)...))
	}

	return nil
}

// ResponseIdContextExtractor adds the id of the response being written as `response.id`.
var ResponseIdContextExtractor = ContextExtractorFunction(
	func(ctx context.Context, record *slog.Record) error {
		if record == nil {
			return nil
		}

		if id, ok := ctx.Value(motmedelContext.ResponseIdContextKey).(uuid.UUID); ok {
			record.Add(slog.Group("response", slog.String("id", id.String())))
		}

		return nil
	},
)
