package body

import (
	"io"
	"net"
	"testing"

	"github.com/indigo-web/chunkedbody"
	"github.com/stretchr/testify/require"
)

func TestPlainEncoder(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	enc := NewPlainEncoder(client, 5)

	done := make(chan struct{})
	var got []byte
	go func() {
		buf := make([]byte, 16)
		n, _ := io.ReadFull(server, buf[:5])
		got = buf[:n]
		close(done)
	}()

	n, err := enc.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	<-done

	require.Equal(t, "hello", string(got))
	require.NoError(t, enc.Complete())
	require.True(t, enc.IsCompleted())
}

func TestPlainDecoder(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		_, _ = server.Write([]byte("hello"))
	}()

	dec := NewPlainDecoder(client, 5)
	buf := make([]byte, 16)

	n, err := dec.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
	require.True(t, dec.IsCompleted())

	_, err = dec.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestChunkedEncoder(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	enc := NewChunkedEncoder(client)

	received := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		received <- buf[:n]
	}()

	_, err := enc.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, "3\r\nabc\r\n", string(<-received))

	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		received <- buf[:n]
	}()
	require.NoError(t, enc.Complete())
	require.Equal(t, "0\r\n\r\n", string(<-received))
	require.True(t, enc.IsCompleted())
}

func TestChunkedDecoder(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		_, _ = server.Write([]byte("3\r\nabc\r\n0\r\n\r\n"))
	}()

	dec := NewChunkedDecoder(client, chunkedbody.NewParser(chunkedbody.DefaultSettings()), false, 64)

	buf := make([]byte, 64)
	n, err := dec.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "abc", string(buf[:n]))
}
