// Package body implements the Encoder/Decoder pair client/nio drives: a
// plain Content-Length framing and a chunked transfer-encoding framing, on
// both the outgoing (request) and incoming (response) sides. Each Read or
// Write call does at most one syscall worth of work, matching the
// one-event-at-a-time contract OutputReady/InputReady impose.
package body

import (
	"io"
	"net"
	"strconv"

	"github.com/indigo-web/chunkedbody"
)

// PlainEncoder writes a known-length request entity straight through to
// the connection, tracking how much is left to satisfy Content-Length.
type PlainEncoder struct {
	conn      net.Conn
	remaining int64
	completed bool
}

func NewPlainEncoder(conn net.Conn, contentLength int64) *PlainEncoder {
	return &PlainEncoder{conn: conn, remaining: contentLength}
}

func (e *PlainEncoder) Write(p []byte) (int, error) {
	if int64(len(p)) > e.remaining {
		p = p[:e.remaining]
	}

	n, err := e.conn.Write(p)
	e.remaining -= int64(n)

	return n, err
}

func (e *PlainEncoder) Complete() error {
	e.completed = true
	return nil
}

func (e *PlainEncoder) IsCompleted() bool {
	return e.completed || e.remaining == 0
}

// ChunkedEncoder wraps each Write in its own chunk, terminating the body
// with the zero-length final chunk on Complete. The chunkedbody library
// this module otherwise leans on only exposes a decoder, so encoding the
// wire framing is hand-rolled here (see DESIGN.md).
type ChunkedEncoder struct {
	conn      net.Conn
	completed bool
}

func NewChunkedEncoder(conn net.Conn) *ChunkedEncoder {
	return &ChunkedEncoder{conn: conn}
}

func (e *ChunkedEncoder) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	frame := strconv.AppendInt(make([]byte, 0, len(p)+20), int64(len(p)), 16)
	frame = append(frame, '\r', '\n')
	frame = append(frame, p...)
	frame = append(frame, crlf...)

	if _, err := e.conn.Write(frame); err != nil {
		return 0, err
	}

	return len(p), nil
}

func (e *ChunkedEncoder) Complete() error {
	if e.completed {
		return nil
	}
	e.completed = true

	_, err := e.conn.Write(lastChunk)
	return err
}

func (e *ChunkedEncoder) IsCompleted() bool {
	return e.completed
}

var (
	crlf      = []byte("\r\n")
	lastChunk = []byte("0\r\n\r\n")
)

// PlainDecoder reads a known-length response entity off the connection,
// one syscall's worth of data at a time.
type PlainDecoder struct {
	conn      net.Conn
	remaining int64
}

func NewPlainDecoder(conn net.Conn, contentLength int64) *PlainDecoder {
	return &PlainDecoder{conn: conn, remaining: contentLength}
}

func (d *PlainDecoder) Read(p []byte) (int, error) {
	if d.remaining == 0 {
		return 0, io.EOF
	}

	if int64(len(p)) > d.remaining {
		p = p[:d.remaining]
	}

	n, err := d.conn.Read(p)
	d.remaining -= int64(n)

	return n, err
}

func (d *PlainDecoder) IsCompleted() bool {
	return d.remaining == 0
}

// ChunkedDecoder unwraps chunked transfer-encoding framing using the same
// chunkedbody.Parser the server-side request path decodes with, buffering
// whatever it parses out of one socket read until the caller has drained it.
type ChunkedDecoder struct {
	conn       net.Conn
	parser     *chunkedbody.Parser
	hasTrailer bool
	readBuf    []byte
	pending    []byte
	completed  bool
}

func NewChunkedDecoder(conn net.Conn, parser *chunkedbody.Parser, hasTrailer bool, readBufSize int) *ChunkedDecoder {
	return &ChunkedDecoder{
		conn:       conn,
		parser:     parser,
		hasTrailer: hasTrailer,
		readBuf:    make([]byte, readBufSize),
	}
}

func (d *ChunkedDecoder) Read(p []byte) (int, error) {
	if len(d.pending) == 0 && d.completed {
		return 0, io.EOF
	}

	if len(d.pending) == 0 {
		n, err := d.conn.Read(d.readBuf)
		if n == 0 && err != nil {
			return 0, err
		}

		// one read may carry several chunks: keep parsing what the parser
		// hands back as extra until it is used up or the final chunk is
		// seen. Bytes after the final chunk are dropped, as no further
		// message follows on the wire.
		var decoded []byte
		data := d.readBuf[:n]
		for len(data) > 0 && !d.completed {
			chunk, extra, perr := d.parser.Parse(data, d.hasTrailer)

			switch perr {
			case nil:
			case io.EOF:
				d.completed = true
			default:
				return 0, perr
			}

			decoded = append(decoded, chunk...)
			data = extra
		}

		d.pending = decoded
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]

	if n == 0 && d.completed {
		return 0, io.EOF
	}

	return n, nil
}

func (d *ChunkedDecoder) IsCompleted() bool {
	return d.completed && len(d.pending) == 0
}
