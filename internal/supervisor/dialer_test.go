package supervisor

import (
	"net"
	"testing"
	"time"
)

func TestDialerConnectsToListener(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	d := NewDialer(l.Addr().String())
	connected := make(chan net.Conn, 1)
	go d.Run(func(conn net.Conn) {
		connected <- conn
		<-make(chan struct{}) // block until the test tears the conn down
	})
	defer d.Stop()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never accepted a connection")
	}

	select {
	case conn := <-connected:
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("dialer never invoked handler")
	}
}

func TestDialerRedialsAfterHandlerReturns(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	d := NewDialer(l.Addr().String())
	calls := make(chan struct{}, 8)
	go d.Run(func(conn net.Conn) {
		calls <- struct{}{}
		conn.Close()
	})
	defer d.Stop()

	seen := 0
	deadline := time.After(reconnectSettle + 5*time.Second)
	for seen < 2 {
		select {
		case <-calls:
			seen++
		case <-deadline:
			t.Fatalf("only saw %d reconnects within deadline, want at least 2", seen)
		}
	}
}

func TestDialerStopEndsRunPromptly(t *testing.T) {
	d := NewDialer("127.0.0.1:1") // nothing listening; dial fails and retries
	stopped := make(chan struct{})
	go func() {
		d.Run(func(conn net.Conn) {})
		close(stopped)
	}()

	d.Stop()

	select {
	case <-stopped:
	case <-time.After(reconnectSettle + 2*time.Second):
		t.Fatal("Run did not return promptly after Stop")
	}
}
