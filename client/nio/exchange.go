package nio

import (
	"context"
	"sync"
	"time"

	"github.com/indigo-web/indigo/client"
)

// Status is the lifecycle state of a connection, as reported by Conn.
type Status uint8

const (
	Active Status = iota
	Closing
	Closed
)

// Encoder streams request body bytes onto the wire. An exchange handler's
// ProduceContent must call Complete exactly once, when it has no more data
// to write.
type Encoder interface {
	Write(p []byte) (int, error)
	// Complete marks the body as fully written. Idempotent calls beyond
	// the first are harmless no-ops.
	Complete() error
	IsCompleted() bool
}

// Decoder streams response body bytes off the wire. IsCompleted becomes
// true once the framing (Content-Length or chunked trailer) says the body
// is fully received.
type Decoder interface {
	Read(p []byte) (int, error)
	IsCompleted() bool
}

// ReuseStrategy decides, given a completed response and the exchange's
// user context, whether the connection it arrived on may serve another
// exchange.
type ReuseStrategy interface {
	KeepAlive(resp client.Response, ctx context.Context) bool
}

// ReuseStrategyFunc adapts a plain function to ReuseStrategy.
type ReuseStrategyFunc func(resp client.Response, ctx context.Context) bool

func (f ReuseStrategyFunc) KeepAlive(resp client.Response, ctx context.Context) bool {
	return f(resp, ctx)
}

// Handler is the capability set a caller implements to drive one or more
// exchanges on a connection. The core owns a Handler exclusively from the
// moment it is adopted (removed from the connection Context in
// RequestReady) until Close is called on every terminal path.
type Handler interface {
	// GenerateRequest produces the next request head, or nil to defer
	// (the connection then sits idle until a caller attaches a fresh
	// Handler and nudges output readiness).
	GenerateRequest() (*client.Request, error)
	// ProduceContent writes the next chunk of the request body to
	// encoder; it must call encoder.Complete() exactly once when done.
	ProduceContent(encoder Encoder, conn Conn) error
	// RequestCompleted signals that the request (head + body) has been
	// fully written.
	RequestCompleted(ctx context.Context)
	// ResponseReceived is called once with the final (>= 200) response
	// head.
	ResponseReceived(resp client.Response) error
	// ConsumeContent reads the next chunk of the response body from
	// decoder.
	ConsumeContent(decoder Decoder, conn Conn) error
	// ResponseCompleted signals that the response body has been fully
	// consumed.
	ResponseCompleted(ctx context.Context) error
	// IsDone reports whether the handler has no further exchanges to
	// drive on this connection.
	IsDone() bool
	// Failed is called exactly once if the exchange aborts; it is always
	// followed by Close.
	Failed(err error)
	// Close releases handler-owned resources. Must tolerate being called
	// more than once.
	Close() error
	// GetContext returns the per-exchange context shared with user code.
	GetContext() context.Context
	// GetConnectionReuseStrategy returns the policy deciding whether the
	// connection may be reused after this exchange.
	GetConnectionReuseStrategy() ReuseStrategy
}

// Conn is the non-blocking connection contract the core consumes. Wire
// parsing/formatting, the reactor loop and socket management all live on
// the other side of this interface (client/internal/connection implements
// it).
type Conn interface {
	// Context returns the connection's shared attribute bag.
	Context() *Context

	SubmitRequest(req *client.Request) error
	SuspendOutput()
	RequestOutput()
	ResetOutput()
	ResetInput()

	SocketTimeout() time.Duration
	SetSocketTimeout(d time.Duration)

	Response() client.Response
	Status() Status

	Close() error
	Shutdown() error
}

// Exchange is the mutable, per-connection record the protocol handler
// drives. Exactly one is created per connection (on Connected) and it lives
// until the connection closes.
type Exchange struct {
	mu sync.Mutex

	handler       Handler
	requestState  MessageState
	responseState MessageState
	request       *client.Request
	response      client.Response
	savedTimeout  time.Duration
	valid         bool
}

// NewExchange returns a fresh Exchange, as created once per connection.
func NewExchange() *Exchange {
	return &Exchange{valid: true}
}

// Reset returns the Exchange to its post-connect, pre-exchange shape,
// breaking the handler<->exchange reference cycle in the process (the
// Exchange is reachable from the connection Context, and the handler was
// reachable from the Exchange).
func (e *Exchange) Reset() {
	e.requestState = Ready
	e.responseState = Ready
	e.request = nil
	e.response = client.Response{}
	e.handler = nil
	e.savedTimeout = 0
}

// Valid reports whether the connection is still eligible for reuse. It is
// a one-way latch: once invalidated, it never becomes valid again.
func (e *Exchange) Valid() bool {
	return e.valid
}

func (e *Exchange) invalidate() {
	e.valid = false
}
