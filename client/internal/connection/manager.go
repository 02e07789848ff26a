package connection

import (
	"net"
	"sync"
	"time"

	"github.com/indigo-web/utils/pool"
)

// Manager keeps one idle-connection pool per remote address. It receives a
// request for a connection to a given address and either hands back an idle
// one or dials a fresh one, the same "bit smarter connection pool" role the
// teacher's stub describes, now actually wired up.
type Manager struct {
	mu      sync.Mutex
	dialer  net.Dialer
	timeout time.Duration
	byAddr  map[string]*pool.ObjectPool[net.Conn]
}

// NewManager returns a Manager dialing with the given connect timeout
// (0 means net.Dialer's default).
func NewManager(connectTimeout time.Duration) *Manager {
	return &Manager{
		dialer:  net.Dialer{Timeout: connectTimeout},
		timeout: connectTimeout,
		byAddr:  make(map[string]*pool.ObjectPool[net.Conn]),
	}
}

// Acquire returns an idle connection to addr if one is pooled, or dials a
// fresh one otherwise.
func (m *Manager) Acquire(addr string) (net.Conn, error) {
	m.mu.Lock()
	p, ok := m.byAddr[addr]
	if !ok {
		p = pool.NewObjectPool[net.Conn](8)
		m.byAddr[addr] = p
	}
	conn := p.Acquire()
	m.mu.Unlock()

	if conn != nil {
		return conn, nil
	}

	return m.dialer.Dial("tcp", addr)
}

// Release returns conn to addr's idle pool so a later Acquire may reuse it.
// Callers must not release a connection that has been closed or
// invalidated for reuse.
func (m *Manager) Release(addr string, conn net.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byAddr[addr]
	if !ok {
		p = pool.NewObjectPool[net.Conn](8)
		m.byAddr[addr] = p
	}

	p.Release(conn)
}
