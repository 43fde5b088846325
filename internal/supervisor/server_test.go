package supervisor

import (
	"net"
	"testing"
	"time"

	"github.com/edgelink/kvmshare/internal/transport"
)

func dialServer(t *testing.T, addr net.Addr) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestServerAcceptsAndInvokesHandler(t *testing.T) {
	s, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()

	accepted := make(chan *transport.Connection, 1)
	go s.Serve(func(c *transport.Connection) {
		accepted <- c
	})

	client := dialServer(t, s.Addr())
	defer client.Close()

	select {
	case c := <-accepted:
		if c == nil {
			t.Fatal("handler received nil connection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for accepted connection")
	}
}

func TestServerPreemptsPriorConnection(t *testing.T) {
	s, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()

	accepted := make(chan *transport.Connection, 2)
	go s.Serve(func(c *transport.Connection) {
		accepted <- c
	})

	first := dialServer(t, s.Addr())
	defer first.Close()

	var firstConn *transport.Connection
	select {
	case firstConn = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first accepted connection")
	}

	second := dialServer(t, s.Addr())
	defer second.Close()

	select {
	case c := <-accepted:
		if c == firstConn {
			t.Fatal("second accept returned the same connection as the first")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second accepted connection")
	}

	select {
	case <-firstConn.Incoming():
	case <-time.After(2 * time.Second):
		t.Fatal("preempted connection's Incoming channel never closed")
	}
}

func TestServerCloseStopsServing(t *testing.T) {
	s, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.Serve(func(c *transport.Connection) {})
	}()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error after Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}
