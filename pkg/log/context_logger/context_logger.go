package context_logger

import (
	"log/slog"

	motmedelLog "github.com/Motmedel/response_writer_go/pkg/log"
)

func New(handler slog.Handler, extractors ...motmedelLog.ContextExtractor) *slog.Logger {
	return slog.New(&motmedelLog.ContextHandler{Next: handler, Extractors: extractors})
}

// NewWithDefaultExtractors attaches context errors and response ids to every record.
func NewWithDefaultExtractors(handler slog.Handler) *slog.Logger {
	return New(handler, &motmedelLog.ErrorContextExtractor{}, motmedelLog.ResponseIdContextExtractor)
}
