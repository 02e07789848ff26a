package http1

import (
	"fmt"
	"net"
	"strconv"

	"github.com/indigo-web/indigo/client"
	"github.com/indigo-web/indigo/http/method"
	"github.com/indigo-web/indigo/http/proto"
)

var (
	space      = []byte(" ")
	crlf       = []byte("\r\n")
	colonSpace = []byte(": ")

	contentLengthHeader    = []byte("Content-Length: ")
	transferEncodingHeader = []byte("Transfer-Encoding: chunked")
)

// protoTokens renders the wire protocol token without the trailing space
// proto.ToBytes carries for status-line rendering; the request line instead
// wants it followed straight by CRLF.
var protoTokens = [...][]byte{
	proto.HTTP10: []byte("HTTP/1.0"),
	proto.HTTP11: []byte("HTTP/1.1"),
	proto.HTTP2:  []byte("HTTP/2"),
}

// Renderer serializes a client.Request head onto the wire: request line,
// headers, framing (Content-Length or Transfer-Encoding: chunked), and the
// blank line terminating the head. The entity itself is streamed separately
// through an Encoder once the head has been flushed.
type Renderer struct {
	conn net.Conn
	buff []byte
}

func NewRenderer(conn net.Conn, buff []byte) *Renderer {
	return &Renderer{
		conn: conn,
		buff: buff,
	}
}

// Send renders req's head into the internal buffer and flushes it to the
// connection in a single write.
func (r *Renderer) Send(req *client.Request) error {
	buff := r.buff[:0]

	buff = r.renderMethod(req.Method, buff)
	buff = append(buff, space...)
	buff = r.renderURI(req, buff)
	buff = append(buff, space...)

	protocolBytes, err := r.protocolToken(req.Proto)
	if err != nil {
		return err
	}
	buff = append(append(buff, protocolBytes...), crlf...)

	for key, values := range req.Headers {
		buff = renderHeader(key, values, buff)
	}

	switch {
	case req.Chunked:
		buff = append(append(buff, transferEncodingHeader...), crlf...)
	case req.HasEntity():
		buff = append(buff, contentLengthHeader...)
		buff = append(strconv.AppendInt(buff, req.ContentLength, 10), crlf...)
	}

	buff = append(buff, crlf...)
	r.buff = buff

	_, err = r.conn.Write(buff)
	return err
}

func (r *Renderer) renderMethod(m method.Method, buff []byte) []byte {
	return append(buff, m.String()...)
}

// renderURI appends the request path and, if any query parameters are set,
// a '?'-prefixed query string.
func (r *Renderer) renderURI(req *client.Request, buff []byte) []byte {
	buff = append(buff, req.Path...)
	if len(req.Query) == 0 {
		return buff
	}

	buff = append(buff, '?')
	first := true

	for key, values := range req.Query {
		for _, value := range values {
			if !first {
				buff = append(buff, '&')
			}
			first = false

			buff = append(append(buff, key...), '=')
			buff = append(buff, value...)
		}
	}

	return buff
}

func (r *Renderer) protocolToken(protocol proto.Proto) ([]byte, error) {
	if int(protocol) >= len(protoTokens) || protoTokens[protocol] == nil {
		return nil, fmt.Errorf("BUG: http1 render: unknown protocol: %v", protocol)
	}

	return protoTokens[protocol], nil
}

func renderHeader(key string, values []string, into []byte) []byte {
	into = append(append(into, key...), colonSpace...)

	for i, value := range values {
		if i > 0 {
			into = append(into, ',')
		}
		into = append(into, value...)
	}

	return append(into, crlf...)
}
