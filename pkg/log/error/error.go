package error

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	motmedelContext "github.com/Motmedel/response_writer_go/pkg/context"
)

func LogError(ctx context.Context, message string, err error, logger *slog.Logger, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(motmedelContext.WithErrorContextValue(ctx, err), message, args...)
}

func LogWarning(ctx context.Context, message string, err error, logger *slog.Logger, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(motmedelContext.WithErrorContextValue(ctx, err), message, args...)
}

func LogFatalWithExitingMessage(ctx context.Context, message string, err error, logger *slog.Logger, args ...any) {
	LogError(ctx, fmt.Sprintf("%s Exiting.", message), err, logger, args...)
	os.Exit(1)
}
