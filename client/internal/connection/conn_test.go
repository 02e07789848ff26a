package connection

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/indigo-web/indigo/client"
	"github.com/indigo-web/indigo/client/nio"
	"github.com/indigo-web/indigo/http/method"
	"github.com/stretchr/testify/require"
)

// serveOnce accepts a single connection, reads one request head, and writes
// back a canned response.
func serveOnce(t *testing.T, ln net.Listener, response string) {
	t.Helper()

	server, err := ln.Accept()
	require.NoError(t, err)

	go func() {
		defer server.Close()

		reader := bufio.NewReader(server)
		for {
			line, err := reader.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}

		_, _ = server.Write([]byte(response))
	}()
}

func TestConnRunSimpleGET(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serveOnce(t, ln, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello")

	netConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer netConn.Close()

	req := client.NewRequest().WithMethod(method.GET).WithPath("/")
	handler := nio.NewFixedExchangeHandler(context.Background(), req, nio.DefaultReuseStrategy)

	ctx := nio.NewContext()
	ctx.PutHandler(handler)

	proto := nio.NewProtocol()
	conn := New(netConn, proto, ctx, DefaultSettings())

	require.NoError(t, conn.Run())
	require.True(t, handler.IsDone())
	require.Nil(t, handler.Err)
	require.Equal(t, "hello", handler.Body.String())
	require.EqualValues(t, 200, handler.Response.Code)
}

func TestConnRunHeadNoBody(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serveOnce(t, ln, "HTTP/1.1 200 OK\r\nContent-Length: 1234\r\n\r\n")

	netConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer netConn.Close()

	req := client.NewRequest().WithMethod(method.HEAD).WithPath("/")
	handler := nio.NewFixedExchangeHandler(context.Background(), req, nio.DefaultReuseStrategy)

	ctx := nio.NewContext()
	ctx.PutHandler(handler)

	proto := nio.NewProtocol()
	conn := New(netConn, proto, ctx, DefaultSettings())

	require.NoError(t, conn.Run())
	require.True(t, handler.IsDone())
	require.Empty(t, handler.Body.Bytes())
}
