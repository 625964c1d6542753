package response_writer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/Motmedel/response_writer_go/pkg/http/date"
	motmedelHttpErrors "github.com/Motmedel/response_writer_go/pkg/http/errors"
	"github.com/Motmedel/response_writer_go/pkg/http/response_writer/response_writer_config"
	"github.com/Motmedel/response_writer_go/pkg/http/types/header"
	"github.com/Motmedel/response_writer_go/pkg/http/types/status_code"
	"github.com/Motmedel/response_writer_go/pkg/http/types/version"
	"github.com/Motmedel/response_writer_go/pkg/log/context_logger"
	motmedelTestingCmp "github.com/Motmedel/response_writer_go/pkg/testing/cmp"
)

const fixedDate = "Sun, 06 Nov 1994 08:49:37 GMT"

var errSink = errors.New("connection reset by peer")

func fixedClock() time.Time {
	return time.Date(1994, time.November, 6, 8, 49, 37, 0, time.UTC)
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// recordingStream keeps every accepted write separately. Writes from the failAt:th attempt on fail.
type recordingStream struct {
	writes   [][]byte
	attempts int
	flushes  int
	failAt   int
	flushErr error
}

func (s *recordingStream) Write(data []byte) (int, error) {
	s.attempts++
	if s.failAt != 0 && s.attempts >= s.failAt {
		return 0, errSink
	}
	s.writes = append(s.writes, bytes.Clone(data))
	return len(data), nil
}

func (s *recordingStream) Flush() error {
	s.flushes++
	return s.flushErr
}

func (s *recordingStream) String() string {
	return string(bytes.Join(s.writes, nil))
}

func makePreparing(t *testing.T, s *recordingStream, options ...response_writer_config.Option) *Preparing {
	t.Helper()

	options = append(
		[]response_writer_config.Option{
			response_writer_config.WithClock(fixedClock),
			response_writer_config.WithLogger(quietLogger),
		},
		options...,
	)

	preparing, err := New(s, options...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return preparing
}

func mustSet(t *testing.T, h *header.Header, name string, value string) {
	t.Helper()
	if err := h.Set(name, value); err != nil {
		t.Fatalf("header set %q: %v", name, err)
	}
}

func TestStart_Preamble(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		version    version.Version
		statusCode status_code.StatusCode
		headers    [][2]string
		expected   string
	}{
		{
			name:       "caller date",
			version:    version.Http11,
			statusCode: 200,
			headers:    [][2]string{{"Date", "Fri, 31 Dec 1999 23:59:59 GMT"}, {"Content-Type", "text/plain"}},
			expected: "HTTP/1.1 200 OK\r\n" +
				"Date: Fri, 31 Dec 1999 23:59:59 GMT\r\n" +
				"Content-Type: text/plain\r\n" +
				"\r\n",
		},
		{
			name:       "synthesized date",
			version:    version.Http10,
			statusCode: 404,
			headers:    [][2]string{{"content-length", "0"}, {"X-Request-Id", "abc"}},
			expected: "HTTP/1.0 404 Not Found\r\n" +
				"content-length: 0\r\n" +
				"X-Request-Id: abc\r\n" +
				"Date: " + fixedDate + "\r\n" +
				"\r\n",
		},
		{
			name:       "empty header",
			version:    version.Http11,
			statusCode: 204,
			expected:   "HTTP/1.1 204 No Content\r\nDate: " + fixedDate + "\r\n\r\n",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			s := &recordingStream{}
			preparing := makePreparing(t, s, response_writer_config.WithVersion(testCase.version))
			if err := preparing.SetStatusCode(testCase.statusCode); err != nil {
				t.Fatalf("set status code: %v", err)
			}
			for _, h := range testCase.headers {
				mustSet(t, preparing.MutableHeader(), h[0], h[1])
			}

			if len(s.writes) != 0 {
				t.Fatalf("got %d writes before start, expected none", len(s.writes))
			}

			streaming, err := preparing.Start()
			if err != nil {
				t.Fatalf("start: %v", err)
			}
			if streaming == nil {
				t.Fatal("expected a streaming writer")
			}

			if diff := cmp.Diff(testCase.expected, s.String()); diff != "" {
				t.Errorf("preamble mismatch (-expected +got):\n%s", diff)
			}
			if s.flushes != 1 {
				t.Errorf("got %d flushes, expected the head to be flushed once", s.flushes)
			}
		})
	}
}

func TestStart_BlankLineIsSeparateWrite(t *testing.T) {
	t.Parallel()

	s := &recordingStream{}
	preparing := makePreparing(t, s)
	mustSet(t, preparing.MutableHeader(), "Content-Type", "text/plain")

	if _, err := preparing.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	var writes []string
	for _, write := range s.writes {
		writes = append(writes, string(write))
	}

	expected := []string{
		"HTTP/1.1 200 OK\r\n",
		"Content-Type: text/plain",
		"\r\n",
		"Date: " + fixedDate,
		"\r\n",
		"\r\n",
	}
	if diff := cmp.Diff(expected, writes); diff != "" {
		t.Errorf("writes mismatch (-expected +got):\n%s", diff)
	}
}

func TestScenario_HelloWorld(t *testing.T) {
	t.Parallel()

	s := &recordingStream{}
	preparing := makePreparing(t, s)
	mustSet(t, preparing.MutableHeader(), "Content-Type", "text/plain")

	streaming, err := preparing.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := streaming.Write([]byte("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := streaming.End(); err != nil {
		t.Fatalf("end: %v", err)
	}

	expected := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nDate: " + fixedDate + "\r\n\r\nhi"
	if diff := cmp.Diff(expected, s.String()); diff != "" {
		t.Errorf("output mismatch (-expected +got):\n%s", diff)
	}
	if streaming.BytesWritten() != 2 {
		t.Errorf("got %d body bytes, expected 2", streaming.BytesWritten())
	}
}

func TestStart_SynthesizedDateIsCurrent(t *testing.T) {
	t.Parallel()

	var sink bytes.Buffer
	preparing, err := NewFromWriter(&sink, response_writer_config.WithLogger(quietLogger))
	if err != nil {
		t.Fatalf("new from writer: %v", err)
	}
	mustSet(t, preparing.MutableHeader(), "Content-Length", "2")

	before := time.Now().Truncate(time.Second)

	streaming, err := preparing.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := streaming.WriteString("hi"); err != nil {
		t.Fatalf("write string: %v", err)
	}
	if err := streaming.End(); err != nil {
		t.Fatalf("end: %v", err)
	}

	if count := strings.Count(sink.String(), "\r\nDate: "); count != 1 {
		t.Fatalf("got %d date lines, expected 1", count)
	}

	response, err := http.ReadResponse(bufio.NewReader(&sink), nil)
	if err != nil {
		t.Fatalf("http read response: %v", err)
	}
	defer response.Body.Close()

	responseDate, err := http.ParseTime(response.Header.Get("Date"))
	if err != nil {
		t.Fatalf("http parse time: %v", err)
	}
	if responseDate.Before(before) {
		t.Errorf("got date %v, expected no earlier than %v", responseDate, before)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "hi" {
		t.Errorf("got body %q, expected %q", body, "hi")
	}
}

func TestStart_DefaultsWithoutHeaders(t *testing.T) {
	t.Parallel()

	var sink bytes.Buffer
	preparing, err := NewFromWriter(&sink, response_writer_config.WithLogger(quietLogger))
	if err != nil {
		t.Fatalf("new from writer: %v", err)
	}

	streaming, err := preparing.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := streaming.End(); err != nil {
		t.Fatalf("end: %v", err)
	}

	statusLine, rest, ok := strings.Cut(sink.String(), "\r\n")
	if !ok || statusLine != "HTTP/1.1 200 OK" {
		t.Fatalf("got status line %q, expected %q", statusLine, "HTTP/1.1 200 OK")
	}

	value, ok := strings.CutPrefix(rest, "Date: ")
	if !ok || !strings.HasSuffix(value, "\r\n\r\n") {
		t.Fatalf("got %q, expected a single date line and the end of the header section", rest)
	}
	if _, err := date.Parse(strings.TrimSuffix(value, "\r\n\r\n")); err != nil {
		t.Errorf("date parse: %v", err)
	}
	if got := streaming.Header().Values(header.DateName); len(got) != 1 {
		t.Errorf("got date values %v, expected one", got)
	}
}

func TestStreaming_Zero(t *testing.T) {
	t.Parallel()

	var streaming Streaming

	if _, err := streaming.Write([]byte("hi")); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	if _, err := streaming.WriteString("hi"); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	if err := streaming.Flush(); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	if err := streaming.End(); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	if streaming.BytesWritten() != 0 {
		t.Errorf("got %d body bytes, expected 0", streaming.BytesWritten())
	}
}

func TestStart_CallerDateIsKept(t *testing.T) {
	t.Parallel()

	const callerDate = "Fri, 31 Dec 1999 23:59:59 GMT"

	s := &recordingStream{}
	preparing := makePreparing(t, s)
	mustSet(t, preparing.MutableHeader(), "date", callerDate)

	streaming, err := preparing.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if count := strings.Count(strings.ToLower(s.String()), "date: "); count != 1 {
		t.Errorf("got %d date lines, expected 1", count)
	}
	if !strings.Contains(s.String(), "\r\ndate: "+callerDate+"\r\n") {
		t.Errorf("expected the caller date in %q", s.String())
	}
	if got := streaming.Header().Get("Date"); got != callerDate {
		t.Errorf("got date %q, expected %q", got, callerDate)
	}
}

func TestStart_WriteFailure(t *testing.T) {
	t.Parallel()

	// Status line, two header lines of two writes each, and the blank line.
	parts := []string{"status line", "header", "header line ending", "header", "header line ending", "end of header section"}

	for i, part := range parts {
		failAt := i + 1
		t.Run(part, func(t *testing.T) {
			t.Parallel()

			s := &recordingStream{failAt: failAt}
			preparing := makePreparing(t, s)
			mustSet(t, preparing.MutableHeader(), "Content-Type", "text/plain")

			streaming, err := preparing.Start()
			if streaming != nil {
				t.Error("expected no streaming writer")
			}
			motmedelTestingCmp.CompareStreamWriteErr(t, err, part, errSink)

			if s.attempts != failAt {
				t.Errorf("got %d write attempts, expected none after the failing write %d", s.attempts, failAt)
			}
			if s.flushes != 0 {
				t.Errorf("got %d flushes, expected none", s.flushes)
			}

			if _, err := preparing.Start(); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
				t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
			}
		})
	}
}

func TestStart_FlushFailure(t *testing.T) {
	t.Parallel()

	s := &recordingStream{flushErr: errSink}
	preparing := makePreparing(t, s)

	streaming, err := preparing.Start()
	if streaming != nil {
		t.Error("expected no streaming writer")
	}
	motmedelTestingCmp.CompareStreamWriteErr(t, err, "head flush", errSink)
}

func TestStreaming_BodyAfterPreamble(t *testing.T) {
	t.Parallel()

	var sink bytes.Buffer
	preparing, err := NewFromWriter(
		&sink,
		response_writer_config.WithClock(fixedClock),
		response_writer_config.WithLogger(quietLogger),
		response_writer_config.WithBufferSize(16),
	)
	if err != nil {
		t.Fatalf("new from writer: %v", err)
	}
	mustSet(t, preparing.MutableHeader(), "Transfer-Encoding", "identity")

	streaming, err := preparing.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	preamble := sink.String()
	if !strings.HasSuffix(preamble, "\r\n\r\n") {
		t.Fatalf("got %q, expected the whole head on the sink after start", preamble)
	}

	chunks := []string{"first ", "", "second, which is longer than the buffer ", "third"}
	for _, chunk := range chunks {
		n, err := streaming.Write([]byte(chunk))
		if err != nil {
			t.Fatalf("write: %v", err)
		}
		if n != len(chunk) {
			t.Errorf("got %d written bytes, expected %d", n, len(chunk))
		}
	}
	if err := streaming.End(); err != nil {
		t.Fatalf("end: %v", err)
	}

	expected := preamble + strings.Join(chunks, "")
	if diff := cmp.Diff(expected, sink.String()); diff != "" {
		t.Errorf("output mismatch (-expected +got):\n%s", diff)
	}
}

func TestStreaming_EmptyWriteIsNoop(t *testing.T) {
	t.Parallel()

	s := &recordingStream{}
	streaming, err := makePreparing(t, s).Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	writes := len(s.writes)
	n, err := streaming.Write(nil)
	if n != 0 || err != nil {
		t.Errorf("got (%d, %v), expected (0, nil)", n, err)
	}
	if len(s.writes) != writes {
		t.Errorf("got %d writes, expected the empty write not to reach the stream", len(s.writes)-writes)
	}
}

func TestStreaming_WriteFailure(t *testing.T) {
	t.Parallel()

	// The head of an empty header takes four writes.
	s := &recordingStream{failAt: 5}
	streaming, err := makePreparing(t, s).Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = streaming.Write([]byte("hi"))
	motmedelTestingCmp.CompareStreamWriteErr(t, err, "body", errSink)
	if streaming.BytesWritten() != 0 {
		t.Errorf("got %d body bytes, expected 0", streaming.BytesWritten())
	}
}

func TestStreaming_End(t *testing.T) {
	t.Parallel()

	s := &recordingStream{}
	streaming, err := makePreparing(t, s).Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := streaming.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if s.flushes != 2 {
		t.Errorf("got %d flushes, expected one for the head and one for the end", s.flushes)
	}

	if err := streaming.End(); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	if _, err := streaming.Write([]byte("late")); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	if err := streaming.Flush(); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	if streaming.StatusCode() != status_code.Default {
		t.Errorf("got status code %v, expected it to stay readable", streaming.StatusCode())
	}
}

func TestStreaming_HeaderIsFrozen(t *testing.T) {
	t.Parallel()

	s := &recordingStream{}
	preparing := makePreparing(t, s)
	retained := preparing.MutableHeader()
	mustSet(t, retained, "Content-Type", "text/plain")

	streaming, err := preparing.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	mustSet(t, retained, "Content-Type", "text/html")
	mustSet(t, retained, "X-Late", "1")

	if got := streaming.Header().Get("Content-Type"); got != "text/plain" {
		t.Errorf("got content type %q, expected the value written in the head", got)
	}
	if streaming.Header().Has("X-Late") {
		t.Error("expected a header added after start to be absent")
	}

	streamingType := reflect.TypeOf(streaming)
	for _, name := range []string{"SetStatusCode", "MutableHeader", "Start", "Deconstruct"} {
		if _, ok := streamingType.MethodByName(name); ok {
			t.Errorf("expected the streaming writer to have no %s method", name)
		}
	}
}

func TestPreparing_ConsumedAfterStart(t *testing.T) {
	t.Parallel()

	preparing := makePreparing(t, &recordingStream{})
	if _, err := preparing.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	defer func() {
		recovered := recover()
		err, ok := recovered.(error)
		if !ok || !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
			t.Errorf("got panic value %v, expected %v", recovered, motmedelHttpErrors.ErrConsumedResponseWriter)
		}
	}()

	preparing.MutableHeader()
}

func TestPreparing_SetStatusCode(t *testing.T) {
	t.Parallel()

	preparing := makePreparing(t, &recordingStream{})

	if err := preparing.SetStatusCode(42); !errors.Is(err, motmedelHttpErrors.ErrInvalidStatusCode) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrInvalidStatusCode)
	}
	if preparing.StatusCode() != status_code.Default {
		t.Errorf("got status code %v, expected the default to remain", preparing.StatusCode())
	}

	if err := preparing.SetStatusCode(http.StatusTeapot); err != nil {
		t.Fatalf("set status code: %v", err)
	}
	if preparing.StatusCode() != http.StatusTeapot {
		t.Errorf("got status code %v", preparing.StatusCode())
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); !errors.Is(err, motmedelHttpErrors.ErrNilStream) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrNilStream)
	}

	_, err := New(&recordingStream{}, response_writer_config.WithStatusCode(1000))
	if !errors.Is(err, motmedelHttpErrors.ErrInvalidStatusCode) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrInvalidStatusCode)
	}

	_, err = New(&recordingStream{}, response_writer_config.WithVersion(version.Version{Major: 10, Minor: 1}))
	if !errors.Is(err, motmedelHttpErrors.ErrInvalidVersion) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrInvalidVersion)
	}
}

func TestConstructDeconstruct(t *testing.T) {
	t.Parallel()

	s := &recordingStream{}
	h := header.New()
	mustSet(t, h, "Server", "response_writer_go")

	preparing, err := Construct(version.Http10, s, http.StatusAccepted, h, response_writer_config.WithLogger(quietLogger))
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	mustSet(t, h, "X-After", "1")

	if preparing.Header().Has("X-After") {
		t.Error("expected the constructed writer to hold its own copy of the header")
	}
	if preparing.Version() != version.Http10 || preparing.StatusCode() != http.StatusAccepted {
		t.Errorf("got %v %v", preparing.Version(), preparing.StatusCode())
	}

	parts, err := preparing.Deconstruct()
	if err != nil {
		t.Fatalf("deconstruct: %v", err)
	}
	if parts.Stream != s {
		t.Error("expected the same stream back")
	}
	if parts.Header.Get("Server") != "response_writer_go" {
		t.Errorf("got server %q", parts.Header.Get("Server"))
	}
	if len(s.writes) != 0 {
		t.Errorf("got %d writes, expected none", len(s.writes))
	}

	if _, err := preparing.Start(); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
	if _, err := preparing.Deconstruct(); !errors.Is(err, motmedelHttpErrors.ErrConsumedResponseWriter) {
		t.Errorf("got error %v, expected %v", err, motmedelHttpErrors.ErrConsumedResponseWriter)
	}
}

func TestLogging(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("6f1c2a5e-9d1b-4c4e-8a54-2b7f0f3b9a10")

	var logBuffer bytes.Buffer
	logger := context_logger.NewWithDefaultExtractors(
		slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	s := &recordingStream{}
	preparing := makePreparing(t, s, response_writer_config.WithLogger(logger), response_writer_config.WithId(id))
	mustSet(t, preparing.MutableHeader(), "Authorization-Info", "secret-value")

	streaming, err := preparing.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if streaming.Id() != id {
		t.Errorf("got id %v, expected %v", streaming.Id(), id)
	}
	if _, err := streaming.Write([]byte("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := streaming.WriteString("!"); err != nil {
		t.Fatalf("write string: %v", err)
	}
	if err := streaming.End(); err != nil {
		t.Fatalf("end: %v", err)
	}

	if strings.Contains(logBuffer.String(), "secret-value") {
		t.Error("expected header values to stay out of the log")
	}

	var messages []string
	decoder := json.NewDecoder(&logBuffer)
	for decoder.More() {
		var record struct {
			Msg      string `json:"msg"`
			Response struct {
				Id string `json:"id"`
			} `json:"response"`
		}
		if err := decoder.Decode(&record); err != nil {
			t.Fatalf("json decode: %v", err)
		}
		if record.Response.Id != id.String() {
			t.Errorf("got response id %q in %q, expected %q", record.Response.Id, record.Msg, id)
		}
		messages = append(messages, record.Msg)
	}

	expected := []string{
		"Writing the response head.",
		"Writing a response header.",
		"Writing a response header.",
		"Writing response body bytes.",
		"Writing response body bytes.",
		"Ending the response.",
	}
	if diff := cmp.Diff(expected, messages); diff != "" {
		t.Errorf("messages mismatch (-expected +got):\n%s", diff)
	}
}
