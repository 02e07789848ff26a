package nio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/indigo-web/indigo/client"
	"github.com/indigo-web/indigo/http/headers"
	"github.com/indigo-web/indigo/http/method"
	"github.com/indigo-web/indigo/http/proto"
	"github.com/indigo-web/indigo/http/status"
	"github.com/stretchr/testify/require"
)

// fakeEncoder/fakeDecoder stand in for the wire codec: they just record what
// passed through them, the same role dummy.CircularClient plays for the
// blocking tcp.Client in the server-side tests.

type fakeEncoder struct {
	written   []byte
	completed bool
}

func (e *fakeEncoder) Write(p []byte) (int, error) {
	e.written = append(e.written, p...)
	return len(p), nil
}

func (e *fakeEncoder) Complete() error {
	e.completed = true
	return nil
}

func (e *fakeEncoder) IsCompleted() bool { return e.completed }

type fakeDecoder struct {
	remaining []byte
	completed bool
}

func (d *fakeDecoder) Read(p []byte) (int, error) {
	if len(d.remaining) == 0 {
		return 0, io.EOF
	}

	n := copy(p, d.remaining)
	d.remaining = d.remaining[n:]
	if len(d.remaining) == 0 {
		d.completed = true
	}

	return n, nil
}

func (d *fakeDecoder) IsCompleted() bool { return d.completed }

// fakeConn is a minimal, single-exchange-at-a-time double of Conn. It
// records every outbound call the protocol makes so a test can assert on
// ordering and effect.
type fakeConn struct {
	ctx *Context

	submitted   *client.Request
	outputSuspended, outputRequested bool
	inputReset, outputReset          bool

	socketTimeout time.Duration

	response client.Response

	status       Status
	closed, shut bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{ctx: NewContext()}
}

func (c *fakeConn) Context() *Context { return c.ctx }

func (c *fakeConn) SubmitRequest(req *client.Request) error {
	c.submitted = req
	return nil
}

func (c *fakeConn) SuspendOutput()  { c.outputSuspended = true }
func (c *fakeConn) RequestOutput()  { c.outputRequested = true; c.outputSuspended = false }
func (c *fakeConn) ResetOutput()    { c.outputReset = true }
func (c *fakeConn) ResetInput()     { c.inputReset = true }

func (c *fakeConn) SocketTimeout() time.Duration     { return c.socketTimeout }
func (c *fakeConn) SetSocketTimeout(d time.Duration) { c.socketTimeout = d }

func (c *fakeConn) Response() client.Response { return c.response }
func (c *fakeConn) Status() Status            { return c.status }

func (c *fakeConn) Close() error {
	c.closed = true
	c.status = Closing
	return nil
}

func (c *fakeConn) Shutdown() error {
	c.shut = true
	c.status = Closed
	return nil
}

// recordingHandler is a Handler double that records every callback it
// receives, so scenario tests can assert on invocation order.
type recordingHandler struct {
	requests []*client.Request
	events   []string

	responses []client.Response
	failure   error

	done bool

	ctx   context.Context
	reuse ReuseStrategy
}

func newRecordingHandler(reqs ...*client.Request) *recordingHandler {
	return &recordingHandler{requests: reqs, ctx: context.Background(), reuse: DefaultReuseStrategy}
}

func (h *recordingHandler) GenerateRequest() (*client.Request, error) {
	if len(h.requests) == 0 {
		h.done = true
		return nil, nil
	}

	req := h.requests[0]
	h.requests = h.requests[1:]
	h.events = append(h.events, "generate")

	return req, nil
}

func (h *recordingHandler) ProduceContent(encoder Encoder, _ Conn) error {
	h.events = append(h.events, "produce")
	return encoder.Complete()
}

func (h *recordingHandler) RequestCompleted(context.Context) {
	h.events = append(h.events, "request-completed")
}

func (h *recordingHandler) ResponseReceived(resp client.Response) error {
	h.events = append(h.events, "response-received")
	h.responses = append(h.responses, resp)
	return nil
}

func (h *recordingHandler) ConsumeContent(decoder Decoder, _ Conn) error {
	h.events = append(h.events, "consume")
	buf := make([]byte, 512)
	for {
		n, err := decoder.Read(buf)
		_ = n
		if err != nil {
			break
		}
	}
	return nil
}

func (h *recordingHandler) ResponseCompleted(context.Context) error {
	h.events = append(h.events, "response-completed")
	h.done = true
	return nil
}

func (h *recordingHandler) IsDone() bool { return h.done }

func (h *recordingHandler) Failed(err error) {
	h.events = append(h.events, "failed")
	h.failure = err
}

func (h *recordingHandler) Close() error {
	h.events = append(h.events, "close")
	return nil
}

func (h *recordingHandler) GetContext() context.Context { return h.ctx }

func (h *recordingHandler) GetConnectionReuseStrategy() ReuseStrategy { return h.reuse }

func attachAndConnect(t *testing.T, p *Protocol, conn *fakeConn, h Handler) {
	t.Helper()
	conn.ctx.PutHandler(h)
	require.NoError(t, p.Connected(conn))
}

func TestSimpleGETKeepAlive(t *testing.T) {
	p := NewProtocol()
	conn := newFakeConn()
	h := newRecordingHandler(client.NewRequest().WithPath("/"))

	attachAndConnect(t, p, conn, h)
	ex := conn.ctx.exchange()
	require.Equal(t, Completed, ex.requestState)

	conn.response = client.Response{Proto: proto.HTTP11, Code: status.OK, Headers: headers.NewHeaders()}
	require.NoError(t, p.ResponseReceived(conn))

	// a Content-Length: 0 body is still routed through InputReady; the
	// decoder reports itself complete on the very first read.
	require.NoError(t, p.InputReady(conn, &fakeDecoder{completed: true}))

	require.False(t, conn.closed, "keep-alive response must not close the connection")
	require.Equal(t, []string{"generate", "request-completed", "response-received", "consume", "response-completed"}, h.events)
}

func TestPostWithContinueAccepted(t *testing.T) {
	p := NewProtocol()
	conn := newFakeConn()

	req := client.NewRequest().WithMethod(method.POST).WithBody(stringsReader("hello"), 5)
	req.Headers.Set("Expect", "100-continue")
	h := newRecordingHandler(req)

	attachAndConnect(t, p, conn, h)
	ex := conn.ctx.exchange()
	require.Equal(t, AckExpected, ex.requestState)
	require.Equal(t, client.DefaultWaitForContinue, conn.socketTimeout)

	conn.response = client.Response{Proto: proto.HTTP11, Code: status.Continue, Headers: headers.NewHeaders()}
	require.NoError(t, p.ResponseReceived(conn))
	require.Equal(t, Ack, ex.requestState)
	require.True(t, conn.outputRequested)
	require.Equal(t, time.Duration(0), conn.socketTimeout, "saved timeout must be restored")

	enc := &fakeEncoder{}
	require.NoError(t, p.OutputReady(conn, enc))
	require.Equal(t, Completed, ex.requestState)
	require.True(t, enc.completed)

	conn.response = client.Response{Proto: proto.HTTP11, Code: status.OK, Headers: headers.NewHeaders()}
	require.NoError(t, p.ResponseReceived(conn))
	require.False(t, conn.closed)
}

func TestPostWithContinueTimeout(t *testing.T) {
	p := NewProtocol()
	conn := newFakeConn()

	req := client.NewRequest().WithMethod(method.POST).WithBody(stringsReader("hello"), 5)
	req.Headers.Set("Expect", "100-continue")
	h := newRecordingHandler(req)

	attachAndConnect(t, p, conn, h)
	ex := conn.ctx.exchange()
	require.Equal(t, AckExpected, ex.requestState)

	require.NoError(t, p.Timeout(conn))
	require.Equal(t, BodyStream, ex.requestState, "timeout while awaiting 100-continue sends the body anyway")
	require.True(t, conn.outputRequested)
	require.False(t, conn.closed)
}

func TestEarlyResponseDuringBody(t *testing.T) {
	p := NewProtocol()
	conn := newFakeConn()

	req := client.NewRequest().WithMethod(method.POST).WithBody(stringsReader("hello"), 5)
	h := newRecordingHandler(req)

	attachAndConnect(t, p, conn, h)
	ex := conn.ctx.exchange()
	require.Equal(t, BodyStream, ex.requestState)

	conn.response = client.Response{
		Proto: proto.HTTP11, Code: status.BadRequest, Headers: headers.NewHeaders(),
	}
	require.NoError(t, p.ResponseReceived(conn))

	require.Equal(t, Completed, ex.requestState)
	require.False(t, ex.Valid(), "an early response must invalidate the connection for reuse")
	require.True(t, conn.outputSuspended)
}

func TestHeadResponseCarriesNoBody(t *testing.T) {
	p := NewProtocol()
	conn := newFakeConn()
	h := newRecordingHandler(client.NewRequest().WithMethod(method.HEAD).WithPath("/"))

	attachAndConnect(t, p, conn, h)

	conn.response = client.Response{
		Proto: proto.HTTP11, Code: status.OK, Headers: headers.NewHeaders(), ContentLength: 1234,
	}
	require.NoError(t, p.ResponseReceived(conn))

	require.True(t, conn.inputReset, "HEAD response must not wait for a body")
	require.Contains(t, h.events, "response-completed")
}

func TestSuccessfulConnectTunnel(t *testing.T) {
	p := NewProtocol()
	conn := newFakeConn()
	h := newRecordingHandler(client.NewRequest().WithMethod(method.CONNECT).WithPath("example.com:443"))

	attachAndConnect(t, p, conn, h)

	conn.response = client.Response{Proto: proto.HTTP11, Code: status.OK, Headers: headers.NewHeaders()}
	require.NoError(t, p.ResponseReceived(conn))

	require.True(t, conn.inputReset, "a successful CONNECT carries no body")
	require.False(t, conn.closed, "a successful CONNECT must never be closed for reuse accounting")
}

func TestIdleTimeoutOutsideAckExpected(t *testing.T) {
	p := NewProtocol()
	conn := newFakeConn()
	h := newRecordingHandler(client.NewRequest().WithPath("/"))

	attachAndConnect(t, p, conn, h)
	ex := conn.ctx.exchange()
	require.Equal(t, Completed, ex.requestState)

	require.NoError(t, p.Timeout(conn))
	require.True(t, conn.closed)
	require.Contains(t, h.events, "failed")
	require.Error(t, h.failure)
}

func TestUnexpectedIntermediateResponse(t *testing.T) {
	p := NewProtocol()
	conn := newFakeConn()
	h := newRecordingHandler(client.NewRequest().WithPath("/"))

	attachAndConnect(t, p, conn, h)

	conn.response = client.Response{Proto: proto.HTTP11, Code: status.EarlyHints, Headers: headers.NewHeaders()}
	err := p.ResponseReceived(conn)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	require.Equal(t, status.EarlyHints, protoErr.Code)
	require.True(t, conn.shut, "an unexpected 1xx is a fatal protocol error")
	require.Contains(t, h.events, "failed")
}

func TestResetClearsState(t *testing.T) {
	ex := NewExchange()
	ex.requestState = BodyStream
	ex.responseState = BodyStream
	ex.request = client.NewRequest()
	ex.response = client.Response{Code: status.OK}
	ex.handler = newRecordingHandler()
	ex.savedTimeout = time.Second
	ex.invalidate()

	ex.Reset()

	require.Equal(t, Ready, ex.requestState)
	require.Equal(t, Ready, ex.responseState)
	require.Nil(t, ex.request)
	require.Nil(t, ex.handler)
	require.Zero(t, ex.savedTimeout)
	require.False(t, ex.Valid(), "Reset must not un-invalidate a connection")
}

// stringsReader marks a request as carrying a body without the scenario
// tests needing to actually drain it (recordingHandler.ProduceContent
// completes the body immediately, ignoring its contents).
func stringsReader(s string) io.Reader {
	return &stringReaderImpl{s: s}
}

type stringReaderImpl struct{ s string }

func (r *stringReaderImpl) Read(p []byte) (int, error) {
	if len(r.s) == 0 {
		return 0, io.EOF
	}

	n := copy(p, r.s)
	r.s = r.s[n:]

	return n, nil
}
