package zap_handler

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Handler is a slog.Handler writing through a zap logger.
type Handler struct {
	Logger *zap.Logger
	fields []zap.Field
}

func New(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Logger: logger}
}

func Level(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func (handler *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return handler.Logger.Core().Enabled(Level(level))
}

func (handler *Handler) Handle(_ context.Context, record slog.Record) error {
	checkedEntry := handler.Logger.Check(Level(record.Level), record.Message)
	if checkedEntry == nil {
		return nil
	}
	if !record.Time.IsZero() {
		checkedEntry.Time = record.Time
	}

	fields := make([]zap.Field, 0, len(handler.fields)+record.NumAttrs())
	fields = append(fields, handler.fields...)
	record.Attrs(
		func(attr slog.Attr) bool {
			fields = appendField(fields, attr)
			return true
		},
	)

	checkedEntry.Write(fields...)

	return nil
}

func (handler *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := make([]zap.Field, len(handler.fields), len(handler.fields)+len(attrs))
	copy(fields, handler.fields)
	for _, attr := range attrs {
		fields = appendField(fields, attr)
	}
	return &Handler{Logger: handler.Logger, fields: fields}
}

func (handler *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	fields := make([]zap.Field, len(handler.fields), len(handler.fields)+1)
	copy(fields, handler.fields)
	// A namespace nests every field added after it, matching slog group semantics.
	return &Handler{Logger: handler.Logger, fields: append(fields, zap.Namespace(name))}
}

type group []slog.Attr

func (g group) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	for _, attr := range g {
		if err := addToEncoder(encoder, attr); err != nil {
			return err
		}
	}
	return nil
}

func appendField(fields []zap.Field, attr slog.Attr) []zap.Field {
	if attr.Equal(slog.Attr{}) {
		return fields
	}

	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return append(fields, zap.String(attr.Key, value.String()))
	case slog.KindInt64:
		return append(fields, zap.Int64(attr.Key, value.Int64()))
	case slog.KindUint64:
		return append(fields, zap.Uint64(attr.Key, value.Uint64()))
	case slog.KindFloat64:
		return append(fields, zap.Float64(attr.Key, value.Float64()))
	case slog.KindBool:
		return append(fields, zap.Bool(attr.Key, value.Bool()))
	case slog.KindDuration:
		return append(fields, zap.Duration(attr.Key, value.Duration()))
	case slog.KindTime:
		return append(fields, zap.Time(attr.Key, value.Time()))
	case slog.KindGroup:
		attrs := value.Group()
		if len(attrs) == 0 {
			return fields
		}
		if attr.Key == "" {
			for _, groupAttr := range attrs {
				fields = appendField(fields, groupAttr)
			}
			return fields
		}
		return append(fields, zap.Object(attr.Key, group(attrs)))
	default:
		return append(fields, zap.Any(attr.Key, value.Any()))
	}
}

func addToEncoder(encoder zapcore.ObjectEncoder, attr slog.Attr) error {
	if attr.Equal(slog.Attr{}) {
		return nil
	}

	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		encoder.AddString(attr.Key, value.String())
	case slog.KindInt64:
		encoder.AddInt64(attr.Key, value.Int64())
	case slog.KindUint64:
		encoder.AddUint64(attr.Key, value.Uint64())
	case slog.KindFloat64:
		encoder.AddFloat64(attr.Key, value.Float64())
	case slog.KindBool:
		encoder.AddBool(attr.Key, value.Bool())
	case slog.KindDuration:
		encoder.AddDuration(attr.Key, value.Duration())
	case slog.KindTime:
		encoder.AddTime(attr.Key, value.Time())
	case slog.KindGroup:
		attrs := value.Group()
		if len(attrs) == 0 {
			return nil
		}
		if attr.Key == "" {
			return group(attrs).MarshalLogObject(encoder)
		}
		return encoder.AddObject(attr.Key, group(attrs))
	default:
		return encoder.AddReflected(attr.Key, value.Any())
	}
	return nil
}
