package response_writer_config

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Motmedel/response_writer_go/pkg/http/date"
	"github.com/Motmedel/response_writer_go/pkg/http/types/status_code"
	"github.com/Motmedel/response_writer_go/pkg/http/types/version"
	"github.com/Motmedel/response_writer_go/pkg/net/stream"
)

var (
	DefaultVersion    = version.Http11
	DefaultStatusCode = status_code.Default
	DefaultBufferSize = stream.DefaultBufferSize
)

type Config struct {
	Id         uuid.UUID
	Version    version.Version
	StatusCode status_code.StatusCode
	BufferSize int
	Clock      date.Clock
	Logger     *slog.Logger
}

type Option func(*Config)

func New(options ...Option) *Config {
	config := &Config{
		Id:         uuid.New(),
		Version:    DefaultVersion,
		StatusCode: DefaultStatusCode,
		BufferSize: DefaultBufferSize,
		Clock:      date.DefaultClock,
	}
	for _, option := range options {
		if option != nil {
			option(config)
		}
	}

	if config.Clock == nil {
		config.Clock = date.DefaultClock
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return config
}

func WithId(id uuid.UUID) Option {
	return func(config *Config) {
		config.Id = id
	}
}

func WithVersion(v version.Version) Option {
	return func(config *Config) {
		config.Version = v
	}
}

func WithStatusCode(statusCode status_code.StatusCode) Option {
	return func(config *Config) {
		config.StatusCode = statusCode
	}
}

// WithBufferSize sets the buffer size used when the writer wraps a plain io.Writer.
func WithBufferSize(size int) Option {
	return func(config *Config) {
		config.BufferSize = size
	}
}

func WithClock(clock date.Clock) Option {
	return func(config *Config) {
		config.Clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(config *Config) {
		config.Logger = logger
	}
}
