package client

import (
	"github.com/indigo-web/indigo/http/headers"
	"github.com/indigo-web/indigo/http/proto"
	"github.com/indigo-web/indigo/http/status"
)

// Response is a response head. The entity, if any, never lives on this
// struct: it is streamed directly from the connection to the exchange
// handler's consumeContent, exactly as client/nio requires.
type Response struct {
	Proto         proto.Proto
	Code          status.Code
	Status        status.Status
	Headers       headers.Headers
	ContentLength int64
	Chunked       bool
}

func NewResponse(h headers.Headers) Response {
	if h == nil {
		h = headers.NewHeaders()
	}

	return Response{Headers: h}
}

// IsIntermediate reports whether this is a 1xx informational response.
func (r Response) IsIntermediate() bool {
	return r.Code < status.OK
}
