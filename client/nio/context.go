package nio

import "sync"

// HandlerKey is where a caller places the Handler that should drive the
// next series of exchanges on a connection, before triggering output
// readiness.
const HandlerKey = "http.nio.exchange-handler"

// exchangeKey is where the core keeps its own per-connection Exchange. It
// is never touched by callers, hence unexported.
const exchangeKey = "http.nio.http-exchange-state"

// Context is the connection's shared, opaque attribute bag. The reactor
// thread and any caller thread attaching a Handler may touch it
// concurrently, so access is guarded by a mutex.
type Context struct {
	mu    sync.Mutex
	attrs map[string]any
}

// NewContext returns an empty attribute bag.
func NewContext() *Context {
	return &Context{attrs: make(map[string]any)}
}

// Get returns the value stored under key, if any.
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.attrs[key]
	return v, ok
}

// Set stores value under key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attrs[key] = value
}

// Remove deletes and returns whatever was stored under key, if anything.
func (c *Context) Remove(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.attrs[key]
	delete(c.attrs, key)

	return v, ok
}

// PutHandler stages h as the next exchange handler for this connection.
// Callers use this (plus whatever mechanism wakes the reactor up, e.g.
// Conn's RequestOutput or a dedicated "start" signal) to kick off a new
// series of exchanges.
func (c *Context) PutHandler(h Handler) {
	c.Set(HandlerKey, h)
}

func (c *Context) takeHandler() Handler {
	v, ok := c.Remove(HandlerKey)
	if !ok {
		return nil
	}

	h, _ := v.(Handler)
	return h
}

func (c *Context) exchange() *Exchange {
	v, ok := c.Get(exchangeKey)
	if !ok {
		return nil
	}

	ex, _ := v.(*Exchange)
	return ex
}

func (c *Context) setExchange(ex *Exchange) {
	c.Set(exchangeKey, ex)
}
