// Package transport wraps a net.Conn carrying length-prefixed InputMessage
// frames in a read-pump/write-pump Connection, the unit the supervisor and
// app-wiring layers hold regardless of which side dialed.
package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/edgelink/kvmshare/internal/logging"
	"github.com/edgelink/kvmshare/internal/protocol"
)

var log = logging.L("transport")

const (
	writeWait   = 5 * time.Second
	sendBufSize = 256
)

// ErrClosed is returned by Send once the Connection has been closed.
var ErrClosed = errors.New("transport: connection closed")

// State is a coarse connection lifecycle state reported to StateChange
// listeners.
type State int

const (
	// StateReady: the connection is open and frames may flow in either
	// direction.
	StateReady State = iota
	// StateClosed: the connection has been torn down, by either side or
	// by a protocol error. It will not recover; a new Connection must be
	// established.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateChange is invoked on every lifecycle transition. It must not block.
type StateChange func(s State, err error)

// Connection wraps a net.Conn with a buffered write pump and a channel of
// decoded inbound messages. It is safe for concurrent use: Send may be
// called from any goroutine, and Incoming is read by a single consumer.
type Connection struct {
	conn net.Conn

	sendCh   chan protocol.InputMessage
	incoming chan protocol.InputMessage
	done     chan struct{}
	closeMu  sync.Mutex
	closed   bool
	closeErr error

	onState StateChange

	remoteAddr string
}

// New wraps conn and starts its read and write pumps. onState, if
// non-nil, is invoked once when the connection transitions to
// StateClosed (StateReady is implied by a successful New).
func New(conn net.Conn, onState StateChange) *Connection {
	c := &Connection{
		conn:       conn,
		sendCh:     make(chan protocol.InputMessage, sendBufSize),
		incoming:   make(chan protocol.InputMessage, sendBufSize),
		done:       make(chan struct{}),
		onState:    onState,
		remoteAddr: conn.RemoteAddr().String(),
	}

	go c.readPump()
	go c.writePump()

	return c
}

// Incoming returns the channel of successfully decoded inbound messages.
// It is closed when the connection closes.
func (c *Connection) Incoming() <-chan protocol.InputMessage {
	return c.incoming
}

// RemoteAddr returns the string form of the underlying net.Conn's remote
// address, captured at construction time.
func (c *Connection) RemoteAddr() string {
	return c.remoteAddr
}

// Send enqueues msg for transmission. Motion-class messages (mouse moves,
// scrolls, drags) are dropped rather than blocking when the send buffer is
// full, since a stale motion sample is worse than a backed-up one; all
// other kinds block until buffer space is available or the connection
// closes.
func (c *Connection) Send(msg protocol.InputMessage) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	if msg.IsMotionClass() {
		select {
		case c.sendCh <- msg:
			return nil
		case <-c.done:
			return ErrClosed
		default:
			log.Warn("dropping motion frame under backpressure", "kind", msg.Kind)
			return nil
		}
	}

	select {
	case c.sendCh <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Close tears down the connection. It is idempotent.
func (c *Connection) Close() error {
	return c.closeWithCause(nil)
}

func (c *Connection) closeWithCause(cause error) error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeErr = cause
	close(c.done)
	c.closeMu.Unlock()

	err := c.conn.Close()

	if c.onState != nil {
		c.onState(StateClosed, cause)
	}
	return err
}

func (c *Connection) readPump() {
	defer close(c.incoming)

	for {
		msg, err := protocol.ReadFrame(c.conn)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownVariant) {
				log.Warn("skipping unknown frame variant", "remote", c.remoteAddr, "error", err)
				continue
			}
			select {
			case <-c.done:
			default:
				log.Info("read pump stopping", "remote", c.remoteAddr, "error", err)
			}
			c.closeWithCause(fmt.Errorf("transport: read: %w", err))
			return
		}

		select {
		case c.incoming <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Connection) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := protocol.WriteFrame(c.conn, msg); err != nil {
				log.Info("write pump stopping", "remote", c.remoteAddr, "error", err)
				c.closeWithCause(fmt.Errorf("transport: write: %w", err))
				return
			}
		}
	}
}
