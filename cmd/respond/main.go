package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	motmedelContext "github.com/Motmedel/response_writer_go/pkg/context"
	"github.com/Motmedel/response_writer_go/pkg/env"
	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	"github.com/Motmedel/response_writer_go/pkg/http/date"
	"github.com/Motmedel/response_writer_go/pkg/http/parsing/version"
	"github.com/Motmedel/response_writer_go/pkg/http/response_writer"
	"github.com/Motmedel/response_writer_go/pkg/http/response_writer/response_writer_config"
	"github.com/Motmedel/response_writer_go/pkg/http/types/header"
	"github.com/Motmedel/response_writer_go/pkg/http/types/status_code"
	"github.com/Motmedel/response_writer_go/pkg/log/context_logger"
	motmedelLogError "github.com/Motmedel/response_writer_go/pkg/log/error"
	"github.com/Motmedel/response_writer_go/pkg/log/zap_handler"
	"github.com/Motmedel/response_writer_go/pkg/net/stream"
)

var (
	ErrMalformedHeaderFlag   = errors.New("malformed header flag")
	ErrBodyNotAllowed        = errors.New("body not allowed for status code")
	ErrContentLengthMismatch = errors.New("content length does not match the body")
)

// allowsContent reports whether a response with statusCode may carry content and a Content-Length (RFC 9110
// sections 6.4.1 and 8.6).
func allowsContent(statusCode status_code.StatusCode) bool {
	return statusCode.Class() != 1 && statusCode != http.StatusNoContent && statusCode != http.StatusNotModified
}

type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(value string) error {
	*h = append(*h, value)
	return nil
}

type options struct {
	version       string
	statusCode    int
	headers       headerFlags
	body          string
	bodyFile      string
	output        string
	connect       string
	writeTimeout  time.Duration
	bufferSize    int
	contentLength bool
}

func parseOptions(args []string) (*options, error) {
	statusCode, err := env.GetEnvIntWithDefault("RESPOND_STATUS", int(status_code.Default))
	if err != nil {
		return nil, fmt.Errorf("get env int (status): %w", err)
	}

	bufferSize, err := env.GetEnvIntWithDefault("RESPOND_BUFFER_SIZE", stream.DefaultBufferSize)
	if err != nil {
		return nil, fmt.Errorf("get env int (buffer size): %w", err)
	}

	var o options
	flagSet := flag.NewFlagSet("respond", flag.ContinueOnError)
	flagSet.StringVar(&o.version, "version", env.GetEnvWithDefault("RESPOND_VERSION", "HTTP/1.1"), "The HTTP version of the status line.")
	flagSet.IntVar(&o.statusCode, "status", statusCode, "The status code.")
	flagSet.Var(&o.headers, "header", "A header field as \"Name: value\". May be repeated.")
	flagSet.StringVar(&o.body, "body", "", "The body.")
	flagSet.StringVar(&o.bodyFile, "body-file", "", "A file holding the body; \"-\" reads standard input.")
	flagSet.StringVar(&o.output, "output", "", "A file to write the response to instead of standard output.")
	flagSet.StringVar(&o.connect, "connect", "", "An address to dial and write the response to instead of standard output.")
	flagSet.DurationVar(&o.writeTimeout, "write-timeout", 10*time.Second, "The write timeout when dialing.")
	flagSet.IntVar(&o.bufferSize, "buffer-size", bufferSize, "The size of the write buffer.")
	flagSet.BoolVar(&o.contentLength, "content-length", true, "Add a Content-Length header unless one is given.")

	if err := flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("flag set parse: %w", err)
	}

	if o.body != "" && o.bodyFile != "" {
		return nil, motmedelErrors.NewWithTrace(errors.New("both -body and -body-file are set"))
	}
	if o.output != "" && o.connect != "" {
		return nil, motmedelErrors.NewWithTrace(errors.New("both -output and -connect are set"))
	}

	return &o, nil
}

func readBody(o *options, stdin io.Reader) ([]byte, error) {
	switch o.bodyFile {
	case "":
		return []byte(o.body), nil
	case "-":
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, motmedelErrors.NewWithTrace(fmt.Errorf("io read all (stdin): %w", err))
		}
		return body, nil
	default:
		body, err := os.ReadFile(o.bodyFile)
		if err != nil {
			return nil, motmedelErrors.NewWithTrace(fmt.Errorf("os read file: %w", err), o.bodyFile)
		}
		return body, nil
	}
}

func openSink(o *options, stdout io.Writer) (io.Writer, error) {
	switch {
	case o.connect != "":
		conn, err := net.DialTimeout("tcp", o.connect, o.writeTimeout)
		if err != nil {
			return nil, motmedelErrors.NewWithTrace(fmt.Errorf("net dial timeout: %w", err), o.connect)
		}
		deadlineConn, err := stream.NewDeadlineConn(conn, o.writeTimeout)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("new deadline conn: %w", err), conn.Close())
		}
		return deadlineConn, nil
	case o.output != "":
		file, err := os.Create(o.output)
		if err != nil {
			return nil, motmedelErrors.NewWithTrace(fmt.Errorf("os create: %w", err), o.output)
		}
		return file, nil
	default:
		return stdout, nil
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, logger *slog.Logger) (err error) {
	o, err := parseOptions(args)
	if err != nil {
		return fmt.Errorf("parse options: %w", err)
	}

	parsedVersion, err := version.Parse([]byte(o.version))
	if err != nil {
		return fmt.Errorf("parse version: %w", err)
	}

	statusCode, err := status_code.New(o.statusCode)
	if err != nil {
		return fmt.Errorf("status code new: %w", err)
	}

	body, err := readBody(o, stdin)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) != 0 && !allowsContent(statusCode) {
		return motmedelErrors.NewWithTrace(ErrBodyNotAllowed, statusCode)
	}

	sink, err := openSink(o, stdout)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	buffered, err := stream.NewBuffered(sink, o.bufferSize)
	if err != nil {
		return fmt.Errorf("new buffered stream: %w", err)
	}
	if o.output != "" || o.connect != "" {
		defer func() {
			err = multierr.Append(err, buffered.Close())
		}()
	}

	preparing, err := response_writer.New(
		buffered,
		response_writer_config.WithVersion(*parsedVersion),
		response_writer_config.WithStatusCode(statusCode),
		response_writer_config.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("response writer new: %w", err)
	}

	h := preparing.MutableHeader()
	for _, headerFlag := range o.headers {
		name, value, ok := strings.Cut(headerFlag, ":")
		if !ok {
			return motmedelErrors.NewWithTrace(ErrMalformedHeaderFlag, headerFlag)
		}
		if err := h.Add(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("header add: %w", err)
		}
	}
	if h.Has(header.DateName) {
		if _, err := date.Parse(h.Get(header.DateName)); err != nil {
			return fmt.Errorf("date parse: %w", err)
		}
	}

	contentLength := strconv.Itoa(len(body))
	switch {
	case !o.contentLength || !allowsContent(statusCode):
	case !h.Has("Content-Length"):
		if err := h.Set("Content-Length", contentLength); err != nil {
			return fmt.Errorf("header set (content length): %w", err)
		}
	case h.Get("Content-Length") != contentLength:
		motmedelLogError.LogWarning(
			motmedelContext.WithResponseIdContextValue(context.Background(), preparing.Id()),
			"The given Content-Length is kept although it does not match the body.",
			motmedelErrors.New(ErrContentLengthMismatch, h.Get("Content-Length")),
			logger,
			slog.Int("body_bytes", len(body)),
		)
	}

	streaming, err := preparing.Start()
	if err != nil {
		return fmt.Errorf("response writer start: %w", err)
	}

	if _, err := streaming.Write(body); err != nil {
		return fmt.Errorf("response writer write: %w", err)
	}

	if err := streaming.End(); err != nil {
		return fmt.Errorf("response writer end: %w", err)
	}

	logger.Info(
		"The response was written.",
		slog.Group("response", slog.String("id", streaming.Id().String())),
		slog.Int("status_code", int(streaming.StatusCode())),
		slog.Int64("body_bytes", streaming.BytesWritten()),
	)

	return nil
}

func makeLogger() (*slog.Logger, func(), error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(env.GetEnvWithDefault("RESPOND_LOG_LEVEL", "info"))); err != nil {
		return nil, nil, motmedelErrors.NewWithTrace(fmt.Errorf("zapcore level unmarshal text: %w", err))
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	// Standard output may carry the response.
	config.OutputPaths = []string{"stderr"}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, nil, motmedelErrors.NewWithTrace(fmt.Errorf("zap config build: %w", err))
	}

	return context_logger.NewWithDefaultExtractors(zap_handler.New(zapLogger)), func() { _ = zapLogger.Sync() }, nil
}

func main() {
	logger, sync, err := makeLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "make logger: %v\n", err)
		os.Exit(1)
	}
	defer sync()
	slog.SetDefault(logger)

	if err := run(os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		sync()
		motmedelLogError.LogFatalWithExitingMessage(context.Background(), "The response could not be written.", err, logger)
	}
}
