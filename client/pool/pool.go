// Package pool is a minimal caller on top of client/nio: it dials (or
// reuses) a connection to an address, drives exactly one request/response
// exchange on it through client/nio.Protocol, and returns the connection to
// its idle pool if the exchange left it eligible for reuse. Pooling itself
// is explicitly a caller concern, not something client/nio provides.
package pool

import (
	"context"
	"time"

	"github.com/indigo-web/indigo/client"
	"github.com/indigo-web/indigo/client/internal/connection"
	"github.com/indigo-web/indigo/client/nio"
)

// Pool executes requests against a set of remote addresses, reusing
// connections across calls wherever the response allows it.
type Pool struct {
	proto    *nio.Protocol
	manager  *connection.Manager
	settings connection.Settings
}

// New returns a Pool. connectTimeout bounds dialing a fresh connection;
// zero means no explicit timeout is applied.
func New(connectTimeout time.Duration) *Pool {
	return &Pool{
		proto:    nio.NewProtocol(),
		manager:  connection.NewManager(connectTimeout),
		settings: connection.DefaultSettings(),
	}
}

// Do submits req against addr (host:port), blocking until the exchange
// completes, and returns the buffered response. The underlying connection
// is returned to the pool automatically when eligible for reuse.
func (p *Pool) Do(ctx context.Context, addr string, req *client.Request) (*nio.FixedExchangeHandler, error) {
	netConn, err := p.manager.Acquire(addr)
	if err != nil {
		return nil, err
	}

	nioCtx := nio.NewContext()
	handler := nio.NewFixedExchangeHandler(ctx, req, nio.DefaultReuseStrategy)
	nioCtx.PutHandler(handler)

	conn := connection.New(netConn, p.proto, nioCtx, p.settings)

	runErr := conn.Run()
	if runErr != nil || handler.Err != nil {
		_ = netConn.Close()

		if handler.Err != nil {
			return handler, handler.Err
		}

		return handler, runErr
	}

	if conn.Status() == nio.Active {
		p.manager.Release(addr, netConn)
	}

	return handler, nil
}
