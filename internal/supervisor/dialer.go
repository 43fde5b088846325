package supervisor

import (
	"net"
	"sync"
	"time"
)

// reconnectSettle is the fixed pause between a dropped or failed
// connection and the next dial attempt. The Host side dials into a
// single known Client on a LAN, not a multi-tenant server over the
// internet, so there is no thundering-herd concern that would call for
// exponential backoff and jitter — a short fixed settle is enough to let
// a Client that just crashed finish restarting its listener.
const reconnectSettle = 3 * time.Second

// ConnHandler is invoked once per dialed connection. It should block for
// the connection's useful life and return when it ends (read error,
// explicit close); the Dialer then waits reconnectSettle and redials.
type ConnHandler func(conn net.Conn)

// Dialer is the Host-role half of the pairing: the process driving the
// keyboard and mouse to share initiates the TCP connection, redialing
// with a fixed settle delay whenever it drops.
type Dialer struct {
	addr   string
	settle time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

// NewDialer creates a Dialer targeting addr (host:port), using the
// default reconnectSettle delay between attempts.
func NewDialer(addr string) *Dialer {
	return NewDialerWithSettle(addr, reconnectSettle)
}

// NewDialerWithSettle is NewDialer with an explicit settle delay,
// letting unusually lossy or congested LANs tune how aggressively the
// Host redials after a drop.
func NewDialerWithSettle(addr string, settle time.Duration) *Dialer {
	if settle <= 0 {
		settle = reconnectSettle
	}
	return &Dialer{
		addr:   addr,
		settle: settle,
		done:   make(chan struct{}),
	}
}

// Run dials addr in a loop, invoking handler for every successful
// connection, until Stop is called. It blocks; run it in its own
// goroutine.
func (d *Dialer) Run(handler ConnHandler) {
	for {
		select {
		case <-d.done:
			return
		default:
		}

		conn, err := net.DialTimeout("tcp", d.addr, 5*time.Second)
		if err != nil {
			log.Warn("dial failed", "addr", d.addr, "error", err)
			if !d.sleep(d.settle) {
				return
			}
			continue
		}

		log.Info("connected", "addr", d.addr)
		handler(conn)

		select {
		case <-d.done:
			return
		default:
		}
		if !d.sleep(d.settle) {
			return
		}
	}
}

// sleep waits for d, reporting false if Stop fired first.
func (d *Dialer) sleep(dur time.Duration) bool {
	select {
	case <-d.done:
		return false
	case <-time.After(dur):
		return true
	}
}

// Stop ends the dial loop after the current attempt or connection
// returns. It is idempotent.
func (d *Dialer) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
	})
}
