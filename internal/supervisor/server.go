// Package supervisor owns the TCP connection lifecycle on both ends of a
// pairing: the Client-role accept loop that listens for the Host to dial
// in (with single-connection preemption), and the Host-role dial loop
// that reconnects after a drop.
package supervisor

import (
	"fmt"
	"net"
	"sync"

	"github.com/edgelink/kvmshare/internal/logging"
	"github.com/edgelink/kvmshare/internal/transport"
)

var log = logging.L("supervisor")

// AcceptHandler is invoked once per accepted, preemption-resolved
// connection. It should return once the connection's useful life is over
// (on read error, on explicit close); Server.Close will also be in
// flight at shutdown.
type AcceptHandler func(conn *transport.Connection)

// Server is the Client-role listener: the process that physically owns
// the shared keyboard and mouse dials in, so this side accepts. Only one
// connection is ever active; a new incoming connection preempts
// (replaces) whatever was previously active, mirroring a single
// always-on remote-management session rather than a multiplexed server.
type Server struct {
	listener net.Listener

	mu     sync.Mutex
	active *transport.Connection
	closed bool
}

// Listen starts listening on addr (host:port). The returned Server must
// be run via Serve.
func Listen(addr string) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("supervisor: listen %s: %w", addr, err)
	}
	return &Server{listener: l}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until Close is called, invoking handler for
// each one after preempting any prior active connection. It blocks; run
// it in its own goroutine.
func (s *Server) Serve(handler AcceptHandler) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			log.Warn("accept error", "error", err)
			continue
		}

		c := s.preempt(conn)
		go handler(c)
	}
}

// preempt closes any previously-active connection and installs c as the
// new one. Only one Host is ever allowed to drive this Client at a time;
// a second incoming dial wins immediately rather than being queued or
// rejected, since the common cause is the Host reconnecting after a drop
// the Client hasn't noticed yet.
func (s *Server) preempt(raw net.Conn) *transport.Connection {
	s.mu.Lock()
	prior := s.active
	s.mu.Unlock()

	if prior != nil {
		log.Info("preempting prior connection", "remote", prior.RemoteAddr())
		prior.Close()
	}

	var c *transport.Connection
	c = transport.New(raw, func(state transport.State, err error) {
		s.mu.Lock()
		if s.active == c {
			s.active = nil
		}
		s.mu.Unlock()
	})

	s.mu.Lock()
	s.active = c
	s.mu.Unlock()

	log.Info("accepted connection", "remote", c.RemoteAddr())
	return c
}

// Close stops accepting new connections and closes the active one, if
// any. It is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	active := s.active
	s.mu.Unlock()

	if active != nil {
		active.Close()
	}
	return s.listener.Close()
}
