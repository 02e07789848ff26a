package nio

import (
	"bytes"
	"context"
	"io"

	"github.com/indigo-web/indigo/client"
)

// FixedExchangeHandler drives exactly one exchange: it sends a single,
// already-fully-built request and buffers the whole response body, then
// reports itself done. It is the handler a caller reaches for when it just
// wants to fire a request and get a response back, grounded on how the
// teacher's own blocking server loop (internal/server/http.Server.Run)
// drains one request per iteration before moving on.
type FixedExchangeHandler struct {
	ctx     context.Context
	request *client.Request
	reuse   ReuseStrategy

	generated bool
	readBuf   [8192]byte

	// Response is populated once ResponseReceived fires.
	Response client.Response
	// Body accumulates the response entity as it streams in.
	Body bytes.Buffer
	// Err holds whatever error Failed was called with, if any.
	Err error

	done bool
}

// NewFixedExchangeHandler returns a handler that will submit req once and
// collect its response. reuse may be nil, in which case DefaultReuseStrategy
// applies.
func NewFixedExchangeHandler(ctx context.Context, req *client.Request, reuse ReuseStrategy) *FixedExchangeHandler {
	if ctx == nil {
		ctx = context.Background()
	}
	if reuse == nil {
		reuse = DefaultReuseStrategy
	}

	return &FixedExchangeHandler{ctx: ctx, request: req, reuse: reuse}
}

func (h *FixedExchangeHandler) GenerateRequest() (*client.Request, error) {
	if h.generated {
		return nil, nil
	}
	h.generated = true

	return h.request, nil
}

func (h *FixedExchangeHandler) ProduceContent(encoder Encoder, _ Conn) error {
	if h.request.Body == nil {
		return encoder.Complete()
	}

	n, err := h.request.Body.Read(h.readBuf[:])
	if n > 0 {
		if _, werr := encoder.Write(h.readBuf[:n]); werr != nil {
			return werr
		}
	}

	switch err {
	case nil:
		return nil
	case io.EOF:
		return encoder.Complete()
	default:
		return err
	}
}

func (h *FixedExchangeHandler) RequestCompleted(context.Context) {}

func (h *FixedExchangeHandler) ResponseReceived(resp client.Response) error {
	h.Response = resp
	return nil
}

func (h *FixedExchangeHandler) ConsumeContent(decoder Decoder, _ Conn) error {
	n, err := decoder.Read(h.readBuf[:])
	if n > 0 {
		h.Body.Write(h.readBuf[:n])
	}
	if err != nil && err != io.EOF {
		return err
	}

	return nil
}

func (h *FixedExchangeHandler) ResponseCompleted(context.Context) error {
	h.done = true
	return nil
}

func (h *FixedExchangeHandler) IsDone() bool {
	return h.done
}

func (h *FixedExchangeHandler) Failed(err error) {
	h.Err = err
	h.done = true
}

func (h *FixedExchangeHandler) Close() error {
	return nil
}

func (h *FixedExchangeHandler) GetContext() context.Context {
	return h.ctx
}

func (h *FixedExchangeHandler) GetConnectionReuseStrategy() ReuseStrategy {
	return h.reuse
}
