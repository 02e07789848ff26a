// Package connection implements client/nio.Conn over a real net.Conn: one
// goroutine per connection drives a sequence of exchanges, synthesizing the
// Connected/RequestReady/OutputReady/ResponseReceived/InputReady/Timeout
// events client/nio.Protocol expects (Exception and Closed are never
// raised from here), the same way
// internal/server/tcp.client pairs a blocking socket with a single
// goroutine — just wearing the client hat instead of the server's.
package connection

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/indigo/client"
	"github.com/indigo-web/indigo/client/internal/body"
	parserhttp1 "github.com/indigo-web/indigo/client/internal/parser/http1"
	renderhttp1 "github.com/indigo-web/indigo/client/internal/render/http1"
	"github.com/indigo-web/indigo/client/nio"
	"github.com/indigo-web/indigo/http/headers"
	"github.com/indigo-web/utils/buffer"
)

// unreadConn lets a single socket read that over-shoots the response head
// hand its leftover bytes (the start of the body) back to whatever reads
// next, the same role internal/unreader.Unreader plays for the server's
// tcp.client.
type unreadConn struct {
	net.Conn
	pending []byte
}

func (c *unreadConn) Read(p []byte) (int, error) {
	if len(c.pending) > 0 {
		n := copy(p, c.pending)
		c.pending = c.pending[n:]

		return n, nil
	}

	return c.Conn.Read(p)
}

func (c *unreadConn) Unread(b []byte) {
	if len(b) == 0 {
		return
	}

	c.pending = append(append([]byte(nil), b...), c.pending...)
}

// Settings bounds the buffers a Conn allocates for rendering and parsing.
type Settings struct {
	ReadBufferSize   int
	RespLineDefault  int
	RespLineMaximal  int
	HeadersDefault   int
	HeadersMaximal   int
	RenderBufferSize int
	MaxChunkSize     int
}

// DefaultSettings mirrors the magnitudes settings.Default uses server-side.
func DefaultSettings() Settings {
	return Settings{
		ReadBufferSize:   4096,
		RespLineDefault:  256,
		RespLineMaximal:  4096,
		HeadersDefault:   1024,
		HeadersMaximal:   65536,
		RenderBufferSize: 2048,
		MaxChunkSize:     65536,
	}
}

// Conn drives a single net.Conn through one or more exchanges on behalf of
// client/nio.Protocol. It implements nio.Conn.
type Conn struct {
	netConn *unreadConn
	proto   *nio.Protocol
	ctx     *nio.Context

	readBuf        []byte
	renderer       *renderhttp1.Renderer
	respParser     *parserhttp1.Parser
	chunkedParser  *chunkedbody.Parser
	chunkReadBufSz int

	currentRequest *client.Request
	response       client.Response

	encoder nio.Encoder
	decoder nio.Decoder

	status          nio.Status
	socketTimeout   time.Duration
	outputRequested bool
	noBody          bool

	lastErr error
}

// New wires up a Conn around netConn; nothing is sent until Run is called.
// The caller should have already staged a Handler on ctx (ctx.PutHandler)
// if it wants Run to submit a request right away.
func New(netConn net.Conn, proto *nio.Protocol, ctx *nio.Context, s Settings) *Conn {
	if ctx == nil {
		ctx = nio.NewContext()
	}

	wrapped := &unreadConn{Conn: netConn}

	c := &Conn{
		netConn: wrapped,
		proto:   proto,
		ctx:     ctx,
		readBuf: make([]byte, s.ReadBufferSize),
		renderer: renderhttp1.NewRenderer(
			wrapped, make([]byte, 0, s.RenderBufferSize),
		),
		respParser: parserhttp1.NewParser(
			*buffer.NewBuffer[byte](s.RespLineDefault, s.RespLineMaximal),
			*buffer.NewBuffer[byte](s.HeadersDefault, s.HeadersMaximal),
		),
		chunkedParser:  chunkedbody.NewParser(chunkedSettings(s)),
		chunkReadBufSz: s.ReadBufferSize,
	}

	return c
}

func chunkedSettings(s Settings) chunkedbody.Settings {
	settings := chunkedbody.DefaultSettings()
	settings.MaxChunkSize = uint(s.MaxChunkSize)

	return settings
}

// Run drives exchanges on the connection until it closes or the attached
// handler has nothing left to submit. It blocks the calling goroutine until
// then; the connection itself is left open when Run returns for lack of a
// request.
func (c *Conn) Run() error {
	if err := c.proto.Connected(c); err != nil {
		c.lastErr = err
		return err
	}

	for {
		if c.currentRequest == nil {
			return c.lastErr
		}

		if err := c.driveOneExchange(); err != nil {
			c.lastErr = err
			return err
		}

		if c.status != nio.Active {
			return c.lastErr
		}

		c.currentRequest = nil
		if err := c.proto.RequestReady(c); err != nil {
			c.lastErr = err
			return err
		}
	}
}

func (c *Conn) driveOneExchange() error {
	req := c.currentRequest

	switch {
	case req.HasEntity() && req.ExpectContinue():
		if err := c.readHeadAndDispatch(); err != nil {
			return err
		}
		if c.outputRequested {
			c.outputRequested = false
			if err := c.streamOutput(); err != nil {
				return err
			}
			if err := c.readHeadAndDispatch(); err != nil {
				return err
			}
		}
	case req.HasEntity():
		if err := c.streamOutput(); err != nil {
			return err
		}
		if err := c.readHeadAndDispatch(); err != nil {
			return err
		}
	default:
		if err := c.readHeadAndDispatch(); err != nil {
			return err
		}
	}

	if !c.noBody && c.decoder != nil {
		for !c.decoder.IsCompleted() {
			if err := c.proto.InputReady(c, c.decoder); err != nil {
				return err
			}
		}
	}

	c.decoder = nil
	c.noBody = false

	return nil
}

func (c *Conn) streamOutput() error {
	for c.encoder == nil || !c.encoder.IsCompleted() {
		if err := c.proto.OutputReady(c, c.encoder); err != nil {
			return err
		}
	}

	return nil
}

// readHeadAndDispatch blocks until a full response head has been parsed,
// derives its body framing, and raises ResponseReceived. If the 100-continue
// wait times out and the protocol asks for output instead, it returns
// without a head so the caller can stream the body first.
func (c *Conn) readHeadAndDispatch() error {
	c.response = client.NewResponse(headers.NewHeaders())
	c.respParser.Init(c.response.Headers)

	for {
		if err := c.netConn.SetReadDeadline(deadline(c.socketTimeout)); err != nil {
			return err
		}

		n, err := c.netConn.Read(c.readBuf)
		if n == 0 && err != nil {
			if isTimeout(err) {
				if terr := c.proto.Timeout(c); terr != nil {
					return terr
				}
				if c.outputRequested {
					return nil
				}

				continue
			}

			return err
		}

		completed, rest, perr := c.respParser.Parse(c.readBuf[:n])
		if perr != nil {
			return perr
		}

		if completed {
			c.netConn.Unread(rest)
			break
		}
	}

	c.response = c.respParser.Response()
	applyFraming(&c.response)

	return c.proto.ResponseReceived(c)
}

func applyFraming(resp *client.Response) {
	if te := resp.Headers.Value("Transfer-Encoding"); strings.Contains(strings.ToLower(te), "chunked") {
		resp.Chunked = true
		return
	}

	if cl := resp.Headers.Value("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			resp.ContentLength = n
		}
	}
}

func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}

	return time.Now().Add(d)
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// --- nio.Conn implementation ---

func (c *Conn) Context() *nio.Context {
	return c.ctx
}

func (c *Conn) SubmitRequest(req *client.Request) error {
	if err := c.renderer.Send(req); err != nil {
		return err
	}

	c.currentRequest = req
	c.outputRequested = false

	switch {
	case req.Chunked:
		c.encoder = body.NewChunkedEncoder(c.netConn)
	case req.HasEntity():
		c.encoder = body.NewPlainEncoder(c.netConn, req.ContentLength)
	default:
		c.encoder = nil
	}

	return nil
}

func (c *Conn) SuspendOutput() {}

func (c *Conn) RequestOutput() {
	c.outputRequested = true
}

func (c *Conn) ResetOutput() {
	c.outputRequested = false
}

func (c *Conn) ResetInput() {
	c.noBody = true
}

func (c *Conn) SocketTimeout() time.Duration {
	return c.socketTimeout
}

func (c *Conn) SetSocketTimeout(d time.Duration) {
	c.socketTimeout = d
}

func (c *Conn) Response() client.Response {
	if !c.noBody {
		switch {
		case c.response.Chunked:
			c.decoder = body.NewChunkedDecoder(c.netConn, c.chunkedParser, false, c.chunkReadBufSz)
		default:
			c.decoder = body.NewPlainDecoder(c.netConn, c.response.ContentLength)
		}
	}

	return c.response
}

func (c *Conn) Status() nio.Status {
	return c.status
}

func (c *Conn) Close() error {
	c.status = nio.Closing
	return c.netConn.Close()
}

func (c *Conn) Shutdown() error {
	c.status = nio.Closed
	return c.netConn.Close()
}
