// Package nio implements the client-side, non-blocking HTTP/1.x
// message-exchange state machine: the event-driven glue between a
// byte-oriented Conn and a user-supplied Handler that generates requests
// and consumes responses incrementally, one exchange at a time, without
// ever buffering a whole body in memory.
package nio

import (
	"os"
	"time"

	"github.com/indigo-web/indigo/client"
	"github.com/indigo-web/indigo/http/method"
	"github.com/indigo-web/indigo/http/status"
)

// GraceCloseTimeout is the socket timeout set after a graceful close
// initiated from Timeout, giving the peer a chance to observe the close
// without the connection hanging indefinitely.
const GraceCloseTimeout = 250 * time.Millisecond

// Protocol is a stateless event dispatcher: all mutable state lives in the
// per-connection Exchange reachable off Conn.Context(). A single Protocol
// value can (and should) be shared across every connection a reactor
// drives.
type Protocol struct {
	// Log receives any error that would otherwise be silently dropped
	// (e.g. a failure from Close(), or an exception with no Exchange to
	// report it to). Defaults to a no-op; tests and callers may override
	// it to route into their own logger.
	Log func(error)
}

// NewProtocol returns a Protocol with a no-op log sink.
func NewProtocol() *Protocol {
	return &Protocol{Log: func(error) {}}
}

func (p *Protocol) log(err error) {
	if err == nil {
		return
	}
	if p.Log != nil {
		p.Log(err)
		return
	}
}

// Connected creates a fresh Exchange for conn and kicks off the first
// exchange.
func (p *Protocol) Connected(conn Conn) error {
	ex := NewExchange()
	conn.Context().setExchange(ex)

	return p.RequestReady(conn)
}

// Closed releases whatever handler is attached (if any) and resets state.
func (p *Protocol) Closed(conn Conn) {
	ex := conn.Context().exchange()
	if ex == nil {
		return
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	p.closeHandler(ex, nil)
	ex.Reset()
}

// Exception hard-shuts the connection down and reports cause to whatever
// handler is attached, or to the log sink if none is.
func (p *Protocol) Exception(conn Conn, cause error) {
	if err := conn.Shutdown(); err != nil {
		p.log(err)
	}

	ex := conn.Context().exchange()
	if ex == nil {
		p.log(cause)
		return
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	p.closeHandler(ex, cause)
	ex.Reset()
}

// RequestReady asks the currently attached (or newly adopted) handler for
// its next request head and submits it to conn.
func (p *Protocol) RequestReady(conn Conn) error {
	ex := conn.Context().exchange()
	if ex == nil {
		return ErrExchangeMissing
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.requestState != Ready {
		// body is still being written; nothing to do yet.
		return nil
	}

	if ex.handler != nil && ex.handler.IsDone() {
		p.closeHandler(ex, nil)
		ex.Reset()
	}

	if ex.handler == nil {
		ex.handler = conn.Context().takeHandler()
	}
	if ex.handler == nil {
		// no handler attached: the connection goes idle until a caller
		// attaches one and nudges output readiness.
		return nil
	}

	req, err := ex.handler.GenerateRequest()
	if err != nil {
		return p.fail(conn, ex, err)
	}
	if req == nil {
		// handler wants to defer; stay READY.
		return nil
	}

	ex.request = req
	if err := conn.SubmitRequest(req); err != nil {
		return p.fail(conn, ex, err)
	}

	switch {
	case req.HasEntity() && req.ExpectContinue():
		ex.savedTimeout = conn.SocketTimeout()
		conn.SetSocketTimeout(req.WaitForContinueTimeout())
		ex.requestState = AckExpected
	case req.HasEntity():
		ex.requestState = BodyStream
	default:
		ex.handler.RequestCompleted(ex.handler.GetContext())
		ex.requestState = Completed
	}

	return nil
}

// OutputReady streams the next chunk of the request body, or suspends
// output while ACK_EXPECTED.
func (p *Protocol) OutputReady(conn Conn, encoder Encoder) error {
	ex := conn.Context().exchange()
	if ex == nil {
		return ErrExchangeMissing
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.handler == nil {
		return ErrHandlerMissing
	}

	if ex.requestState == AckExpected {
		conn.SuspendOutput()
		return nil
	}

	if err := ex.handler.ProduceContent(encoder, conn); err != nil {
		return p.fail(conn, ex, err)
	}
	ex.requestState = BodyStream

	if encoder.IsCompleted() {
		ex.handler.RequestCompleted(ex.handler.GetContext())
		ex.requestState = Completed
	}

	return nil
}

// ResponseReceived is raised once the response head has been parsed. It
// handles both 1xx intermediate responses and the final response.
func (p *Protocol) ResponseReceived(conn Conn) error {
	ex := conn.Context().exchange()
	if ex == nil {
		return ErrExchangeMissing
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.handler == nil {
		return ErrHandlerMissing
	}

	resp := conn.Response()

	if resp.IsIntermediate() {
		if resp.Code != status.Continue {
			return p.fail(conn, ex, newProtocolError(resp.Code, resp.Status))
		}
		if ex.requestState == AckExpected {
			conn.SetSocketTimeout(ex.savedTimeout)
			conn.RequestOutput()
			ex.requestState = Ack
		}
		// a spurious 100 outside ACK_EXPECTED is silently ignored: no
		// state change.
		return nil
	}

	ex.response = resp

	switch ex.requestState {
	case AckExpected:
		// server skipped the 100 and answered directly.
		conn.SetSocketTimeout(ex.savedTimeout)
		conn.ResetOutput()
		ex.requestState = Completed
	case BodyStream:
		// early response: we're still writing the body.
		conn.ResetOutput()
		conn.SuspendOutput()
		ex.requestState = Completed
		ex.invalidate()
	}

	if err := ex.handler.ResponseReceived(resp); err != nil {
		return p.fail(conn, ex, err)
	}
	ex.responseState = BodyStream

	if !canResponseHaveBody(ex.request, resp) {
		conn.ResetInput()
		return p.processResponse(conn, ex)
	}

	return nil
}

// InputReady streams the next chunk of the response body.
func (p *Protocol) InputReady(conn Conn, decoder Decoder) error {
	ex := conn.Context().exchange()
	if ex == nil {
		return ErrExchangeMissing
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.handler == nil {
		return ErrHandlerMissing
	}

	if err := ex.handler.ConsumeContent(decoder, conn); err != nil {
		return p.fail(conn, ex, err)
	}
	ex.responseState = BodyStream

	if decoder.IsCompleted() {
		return p.processResponse(conn, ex)
	}

	return nil
}

// Timeout handles both the 100-continue window elapsing (in which case the
// body is sent anyway, per RFC guidance) and a genuine idle/IO timeout.
func (p *Protocol) Timeout(conn Conn) error {
	ex := conn.Context().exchange()
	if ex != nil {
		ex.mu.Lock()

		if ex.requestState == AckExpected {
			conn.SetSocketTimeout(ex.savedTimeout)
			conn.RequestOutput()
			ex.requestState = BodyStream
			ex.mu.Unlock()
			return nil
		}

		p.closeHandler(ex, os.ErrDeadlineExceeded)
		ex.mu.Unlock()
	}

	if conn.Status() == Active {
		if err := conn.Close(); err != nil {
			p.log(err)
			return err
		}
		if conn.Status() == Closing {
			conn.SetSocketTimeout(GraceCloseTimeout)
		}
		return nil
	}

	return conn.Shutdown()
}

// fail runs the uniform fatal-error path: shut the connection down, report
// the failure to the handler, close it, and reset state. ex.mu is assumed
// already held by the caller.
func (p *Protocol) fail(conn Conn, ex *Exchange, cause error) error {
	if err := conn.Shutdown(); err != nil {
		p.log(err)
	}

	p.closeHandler(ex, cause)
	ex.Reset()

	return cause
}

func (p *Protocol) closeHandler(ex *Exchange, cause error) {
	if ex.handler == nil {
		return
	}

	if cause != nil {
		ex.handler.Failed(cause)
	}
	if err := ex.handler.Close(); err != nil {
		p.log(err)
	}
}

// processResponse reconciles connection reuse once the response body (or
// the lack of one) has been fully accounted for, then resets the Exchange
// for the next exchange.
func (p *Protocol) processResponse(conn Conn, ex *Exchange) error {
	handler := ex.handler
	userCtx := handler.GetContext()

	if ex.valid {
		if !isSuccessfulConnect(ex.request, ex.response) {
			if !handler.GetConnectionReuseStrategy().KeepAlive(ex.response, userCtx) {
				if err := conn.Close(); err != nil {
					p.log(err)
				}
			}
		}
	} else if err := conn.Close(); err != nil {
		p.log(err)
	}

	if err := handler.ResponseCompleted(userCtx); err != nil {
		return p.fail(conn, ex, err)
	}

	ex.Reset()

	return nil
}

// canResponseHaveBody reports whether resp is allowed to carry an entity:
// HEAD requests, successful CONNECT tunnels, and 204/205/304 never do.
func canResponseHaveBody(req *client.Request, resp client.Response) bool {
	if req == nil {
		return !resp.IsIntermediate()
	}

	if req.Method == method.HEAD {
		return false
	}
	if isSuccessfulConnect(req, resp) {
		return false
	}

	switch resp.Code {
	case status.NoContent, status.ResetContent, status.NotModified:
		return false
	}

	return !resp.IsIntermediate()
}

func isSuccessfulConnect(req *client.Request, resp client.Response) bool {
	return req != nil && req.Method == method.CONNECT && resp.Code < status.MultipleChoices
}
