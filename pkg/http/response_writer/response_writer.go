package response_writer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	motmedelContext "github.com/Motmedel/response_writer_go/pkg/context"
	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	"github.com/Motmedel/response_writer_go/pkg/errors/types/nil_error"
	"github.com/Motmedel/response_writer_go/pkg/http/date"
	motmedelHttpErrors "github.com/Motmedel/response_writer_go/pkg/http/errors"
	"github.com/Motmedel/response_writer_go/pkg/http/response_writer/response_writer_config"
	"github.com/Motmedel/response_writer_go/pkg/http/types"
	"github.com/Motmedel/response_writer_go/pkg/http/types/header"
	"github.com/Motmedel/response_writer_go/pkg/http/types/status_code"
	"github.com/Motmedel/response_writer_go/pkg/http/types/version"
	"github.com/Motmedel/response_writer_go/pkg/net/stream"
)

// Response is the read-only surface shared by both phases of a response.
type Response interface {
	Id() uuid.UUID
	Version() version.Version
	StatusCode() status_code.StatusCode
	Header() header.View
}

var (
	_ Response  = (*Preparing)(nil)
	_ Response  = (*Streaming)(nil)
	_ io.Writer = (*Streaming)(nil)
)

// message is owned by exactly one phase value at a time; Start hands it from a Preparing to a Streaming.
type message struct {
	id         uuid.UUID
	version    version.Version
	statusCode status_code.StatusCode
	header     *header.Header
	stream     stream.Stream
	clock      date.Clock
	logger     *slog.Logger
}

func (m *message) context() context.Context {
	return motmedelContext.WithResponseIdContextValue(context.Background(), m.id)
}

func (m *message) write(part string, s string) error {
	if _, err := io.WriteString(m.stream, s); err != nil {
		return motmedelErrors.New(&motmedelHttpErrors.StreamWriteError{Part: part, Cause: err}, s)
	}
	return nil
}

// Parts are the constituents of an unstarted response.
type Parts struct {
	Version    version.Version
	Stream     stream.Stream
	StatusCode status_code.StatusCode
	Header     *header.Header
}

// Preparing is a response whose status line and header section have not been written. Its status code and header
// may be changed; nothing has reached the stream.
type Preparing struct {
	message *message
}

func newPreparing(parts *Parts, config *response_writer_config.Config) (*Preparing, error) {
	if parts.Stream == nil {
		return nil, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w", motmedelHttpErrors.ErrNilStream, nil_error.New("stream")),
		)
	}

	if !parts.StatusCode.Valid() {
		return nil, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w", motmedelErrors.ErrSemanticError, motmedelHttpErrors.ErrInvalidStatusCode),
			parts.StatusCode,
		)
	}

	if !parts.Version.Valid() {
		return nil, motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w", motmedelErrors.ErrSemanticError, motmedelHttpErrors.ErrInvalidVersion),
			parts.Version,
		)
	}

	h := parts.Header
	if h == nil {
		h = header.New()
	}

	return &Preparing{
		message: &message{
			id:         config.Id,
			version:    parts.Version,
			statusCode: parts.StatusCode,
			header:     h,
			stream:     parts.Stream,
			clock:      config.Clock,
			logger:     config.Logger,
		},
	}, nil
}

// New makes a response writer owning s. No I/O is performed.
func New(s stream.Stream, options ...response_writer_config.Option) (*Preparing, error) {
	config := response_writer_config.New(options...)
	return newPreparing(
		&Parts{Version: config.Version, Stream: s, StatusCode: config.StatusCode},
		config,
	)
}

// NewFromWriter wraps w in a buffered stream of the configured size and makes a response writer owning it.
func NewFromWriter(w io.Writer, options ...response_writer_config.Option) (*Preparing, error) {
	config := response_writer_config.New(options...)

	buffered, err := stream.NewBuffered(w, config.BufferSize)
	if err != nil {
		return nil, motmedelErrors.New(fmt.Errorf("new buffered stream: %w", err), w)
	}

	return newPreparing(
		&Parts{Version: config.Version, Stream: buffered, StatusCode: config.StatusCode},
		config,
	)
}

// Construct makes a response writer from its parts, taking ownership of the stream and a copy of the header. The
// version and status code options are ignored in favor of the parts.
func Construct(
	v version.Version,
	s stream.Stream,
	statusCode status_code.StatusCode,
	h *header.Header,
	options ...response_writer_config.Option,
) (*Preparing, error) {
	return newPreparing(
		&Parts{Version: v, Stream: s, StatusCode: statusCode, Header: h.Clone()},
		response_writer_config.New(options...),
	)
}

func (preparing *Preparing) live() *message {
	if preparing == nil || preparing.message == nil {
		panic(motmedelErrors.NewWithTrace(motmedelHttpErrors.ErrConsumedResponseWriter))
	}
	return preparing.message
}

func (preparing *Preparing) Id() uuid.UUID {
	return preparing.live().id
}

func (preparing *Preparing) Version() version.Version {
	return preparing.live().version
}

func (preparing *Preparing) StatusCode() status_code.StatusCode {
	return preparing.live().statusCode
}

func (preparing *Preparing) Header() header.View {
	return preparing.live().header.View()
}

func (preparing *Preparing) SetStatusCode(statusCode status_code.StatusCode) error {
	if !statusCode.Valid() {
		return motmedelErrors.NewWithTrace(
			fmt.Errorf("%w: %w", motmedelErrors.ErrSemanticError, motmedelHttpErrors.ErrInvalidStatusCode),
			statusCode,
		)
	}
	preparing.live().statusCode = statusCode
	return nil
}

// MutableHeader returns the header that Start will write. Changes made through a pointer retained past Start do not
// reach the Streaming writer.
func (preparing *Preparing) MutableHeader() *header.Header {
	return preparing.live().header
}

// Deconstruct hands the parts of an unstarted response back to the caller. The writer is consumed.
func (preparing *Preparing) Deconstruct() (*Parts, error) {
	if preparing == nil || preparing.message == nil {
		return nil, motmedelErrors.NewWithTrace(motmedelHttpErrors.ErrConsumedResponseWriter)
	}

	m := preparing.message
	preparing.message = nil

	return &Parts{Version: m.version, Stream: m.stream, StatusCode: m.statusCode, Header: m.header}, nil
}

// Start writes the status line, the header section and the empty line ending it, flushes the stream, and returns
// the writer for the body. A Date header is appended if the header has none. The writer is consumed whether
// or not Start succeeds; on failure the stream is left to the caller's connection handling.
func (preparing *Preparing) Start() (*Streaming, error) {
	if preparing == nil || preparing.message == nil {
		return nil, motmedelErrors.NewWithTrace(motmedelHttpErrors.ErrConsumedResponseWriter)
	}

	m := preparing.message
	preparing.message = nil

	ctx := m.context()
	m.logger.DebugContext(
		ctx,
		"Writing the response head.",
		slog.String("version", m.version.String()),
		slog.Int("status_code", int(m.statusCode)),
	)

	if err := m.write("status line", m.version.String()+" "+m.statusCode.String()+types.LineEnding); err != nil {
		return nil, err
	}

	if !m.header.Has(header.DateName) {
		if err := m.header.Set(header.DateName, date.Format(m.clock())); err != nil {
			return nil, motmedelErrors.New(fmt.Errorf("header set (date): %w", err))
		}
	}

	for name, value := range m.header.All() {
		m.logger.DebugContext(ctx, "Writing a response header.", slog.String("name", name))

		if err := m.write("header", name+": "+value); err != nil {
			return nil, err
		}
		if err := m.write("header line ending", types.LineEnding); err != nil {
			return nil, err
		}
	}

	if err := m.write("end of header section", types.LineEnding); err != nil {
		return nil, err
	}

	if err := m.stream.Flush(); err != nil {
		return nil, motmedelErrors.New(&motmedelHttpErrors.StreamWriteError{Part: "head flush", Cause: err})
	}

	m.header = m.header.Clone()

	return &Streaming{message: m}, nil
}

// Streaming is a response whose head has been written. Only body bytes can be added; the status code and header
// are fixed.
type Streaming struct {
	message      *message
	ended        bool
	bytesWritten int64
}

// live returns the message of a writer made by Start. The zero Streaming has none.
func (streaming *Streaming) live() *message {
	if streaming == nil || streaming.message == nil {
		panic(motmedelErrors.NewWithTrace(motmedelHttpErrors.ErrConsumedResponseWriter))
	}
	return streaming.message
}

// writable returns the message while body bytes may still be written.
func (streaming *Streaming) writable() (*message, error) {
	if streaming == nil || streaming.message == nil || streaming.ended {
		return nil, motmedelErrors.NewWithTrace(motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	return streaming.message, nil
}

func (streaming *Streaming) Id() uuid.UUID {
	return streaming.live().id
}

func (streaming *Streaming) Version() version.Version {
	return streaming.live().version
}

func (streaming *Streaming) StatusCode() status_code.StatusCode {
	return streaming.live().statusCode
}

func (streaming *Streaming) Header() header.View {
	return streaming.live().header.View()
}

// BytesWritten is the number of body bytes accepted so far.
func (streaming *Streaming) BytesWritten() int64 {
	if streaming == nil {
		return 0
	}
	return streaming.bytesWritten
}

func (streaming *Streaming) writeBody(m *message, size int, write func() (int, error)) (int, error) {
	m.logger.DebugContext(m.context(), "Writing response body bytes.", slog.Int("size", size))

	n, err := write()
	streaming.bytesWritten += int64(n)
	if err != nil {
		return n, motmedelErrors.New(&motmedelHttpErrors.StreamWriteError{Part: "body", Cause: err}, size)
	}

	return n, nil
}

// Write appends data to the body as is. Framing, such as a Content-Length set before Start, is up to the caller.
func (streaming *Streaming) Write(data []byte) (int, error) {
	m, err := streaming.writable()
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}

	return streaming.writeBody(m, len(data), func() (int, error) { return m.stream.Write(data) })
}

func (streaming *Streaming) WriteString(s string) (int, error) {
	m, err := streaming.writable()
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}

	return streaming.writeBody(m, len(s), func() (int, error) { return io.WriteString(m.stream, s) })
}

func (streaming *Streaming) Flush() error {
	m, err := streaming.writable()
	if err != nil {
		return err
	}

	if err := m.stream.Flush(); err != nil {
		return motmedelErrors.New(&motmedelHttpErrors.StreamWriteError{Part: "body flush", Cause: err})
	}

	return nil
}

// End flushes the remaining body bytes and consumes the writer. Closing the stream is up to its owner.
func (streaming *Streaming) End() error {
	m, err := streaming.writable()
	if err != nil {
		return err
	}

	m.logger.DebugContext(m.context(), "Ending the response.", slog.Int64("bytes_written", streaming.bytesWritten))

	err = streaming.Flush()
	streaming.ended = true

	return err
}
