package stream

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/multierr"

	motmedelErrors "github.com/Motmedel/response_writer_go/pkg/errors"
	motmedelNetErrors "github.com/Motmedel/response_writer_go/pkg/net/errors"
)

const DefaultBufferSize = 4096

// Stream is a buffered byte sink. Bytes accepted by Write reach the underlying sink no later than the next Flush.
type Stream interface {
	io.Writer
	Flush() error
}

// Buffered is a Stream over any io.Writer. Once the underlying writer fails, every later Write and Flush returns the
// same error.
type Buffered struct {
	writer     *bufio.Writer
	underlying io.Writer
}

func NewBuffered(writer io.Writer, size int) (*Buffered, error) {
	if writer == nil {
		return nil, motmedelErrors.NewWithTrace(motmedelNetErrors.ErrNilWriter)
	}
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffered{writer: bufio.NewWriterSize(writer, size), underlying: writer}, nil
}

func (buffered *Buffered) Write(data []byte) (int, error) {
	return buffered.writer.Write(data)
}

func (buffered *Buffered) WriteString(s string) (int, error) {
	return buffered.writer.WriteString(s)
}

func (buffered *Buffered) Flush() error {
	return buffered.writer.Flush()
}

// Buffered is the number of bytes not yet handed to the underlying writer.
func (buffered *Buffered) Buffered() int {
	return buffered.writer.Buffered()
}

// Close flushes and then closes the underlying writer if it is an io.Closer. The underlying writer is closed even
// when the flush fails; both errors are reported.
func (buffered *Buffered) Close() error {
	var err error
	if flushErr := buffered.writer.Flush(); flushErr != nil {
		err = multierr.Append(err, fmt.Errorf("bufio writer flush: %w", flushErr))
	}

	if closer, ok := buffered.underlying.(io.Closer); ok {
		if closeErr := closer.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close: %w", closeErr))
		}
	}

	return err
}

// DeadlineConn sets a fresh write deadline on Conn before every Write, so a stalled peer fails the write instead of
// blocking it indefinitely.
type DeadlineConn struct {
	Conn         net.Conn
	WriteTimeout time.Duration
}

func NewDeadlineConn(conn net.Conn, writeTimeout time.Duration) (*DeadlineConn, error) {
	if conn == nil {
		return nil, motmedelErrors.NewWithTrace(motmedelNetErrors.ErrNilConn)
	}
	return &DeadlineConn{Conn: conn, WriteTimeout: writeTimeout}, nil
}

func (deadlineConn *DeadlineConn) Write(data []byte) (int, error) {
	if deadlineConn.WriteTimeout > 0 {
		if err := deadlineConn.Conn.SetWriteDeadline(time.Now().Add(deadlineConn.WriteTimeout)); err != nil {
			return 0, fmt.Errorf("conn set write deadline: %w", err)
		}
	}
	return deadlineConn.Conn.Write(data)
}

func (deadlineConn *DeadlineConn) Close() error {
	return deadlineConn.Conn.Close()
}
