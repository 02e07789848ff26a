package client

import (
	"io"
	"time"

	"github.com/indigo-web/indigo/http/headers"
	"github.com/indigo-web/indigo/http/method"
	"github.com/indigo-web/indigo/http/proto"
)

// DefaultWaitForContinue is the socket timeout override applied while a
// request is awaiting a 100-continue response, matching the
// http.protocol.wait-for-continue default of the reference implementation.
const DefaultWaitForContinue = 3000 * time.Millisecond

// Request is the head of an outgoing request, plus a handle on its entity
// (if any). It is only ever touched by one exchange at a time, so it carries
// no synchronization of its own.
type Request struct {
	Method  method.Method
	Path    string
	Query   Query
	Proto   proto.Proto
	Headers headers.Headers

	// Body streams the request entity. Nil means the request has no entity
	// at all (e.g. GET).
	Body io.Reader
	// ContentLength is the declared size of Body. Ignored when Chunked is
	// true.
	ContentLength int64
	// Chunked marks the entity as using chunked transfer-encoding instead
	// of a known Content-Length.
	Chunked bool

	// WaitForContinue overrides the socket timeout while ACK_EXPECTED,
	// mirroring http.protocol.wait-for-continue. Zero means
	// DefaultWaitForContinue.
	WaitForContinue time.Duration
}

// NewRequest returns an empty, GET-by-default request head ready to be
// filled in by an exchange handler.
func NewRequest() *Request {
	return &Request{
		Method:  method.GET,
		Query:   NewQuery(),
		Proto:   proto.HTTP11,
		Headers: headers.NewHeaders(),
	}
}

func (r *Request) WithMethod(m method.Method) *Request {
	r.Method = m
	return r
}

func (r *Request) WithPath(path string) *Request {
	r.Path = path
	return r
}

func (r *Request) WithBody(body io.Reader, contentLength int64) *Request {
	r.Body = body
	r.ContentLength = contentLength
	r.Chunked = false
	return r
}

func (r *Request) WithChunkedBody(body io.Reader) *Request {
	r.Body = body
	r.Chunked = true
	return r
}

// HasEntity reports whether the request carries a body at all.
func (r *Request) HasEntity() bool {
	return r.Body != nil
}

// ExpectContinue reports whether the client asked the server to validate
// the request head before the entity is sent.
func (r *Request) ExpectContinue() bool {
	return r.Headers.ValueOr("Expect", "") == "100-continue"
}

// WaitForContinueTimeout returns the effective 100-continue timeout.
func (r *Request) WaitForContinueTimeout() time.Duration {
	if r.WaitForContinue <= 0 {
		return DefaultWaitForContinue
	}

	return r.WaitForContinue
}
