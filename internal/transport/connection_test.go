package transport

import (
	"net"
	"testing"
	"time"

	"github.com/edgelink/kvmshare/internal/protocol"
)

func TestSendAndReceiveRoundtrip(t *testing.T) {
	a, b := net.Pipe()
	ca := New(a, nil)
	cb := New(b, nil)
	defer ca.Close()
	defer cb.Close()

	msg := protocol.NewKeyboard(0x04, protocol.KeyDown, 0)
	if err := ca.Send(msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-cb.Incoming():
		if got.Kind != protocol.KindKeyboard || got.Keyboard == nil || got.Keyboard.KeyCode != 0x04 {
			t.Fatalf("got %#v, want keyboard keycode 0x04", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestCloseNotifiesStateChange(t *testing.T) {
	a, b := net.Pipe()

	notified := make(chan State, 1)
	ca := New(a, func(s State, err error) { notified <- s })
	cb := New(b, nil)
	defer cb.Close()

	ca.Close()

	select {
	case s := <-notified:
		if s != StateClosed {
			t.Fatalf("state = %v, want StateClosed", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state change notification")
	}
}

func TestSendAfterCloseReturnsErrClosed(t *testing.T) {
	a, b := net.Pipe()
	ca := New(a, nil)
	cb := New(b, nil)
	defer cb.Close()

	ca.Close()

	if err := ca.Send(protocol.NewControlRelease()); err != ErrClosed {
		t.Fatalf("Send after close = %v, want ErrClosed", err)
	}
}

func TestRemoteDisconnectClosesIncomingChannel(t *testing.T) {
	a, b := net.Pipe()
	ca := New(a, nil)
	cb := New(b, nil)
	defer ca.Close()

	cb.Close()

	select {
	case _, ok := <-ca.Incoming():
		if ok {
			t.Fatal("expected incoming channel to be closed, got a value")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for incoming channel to close")
	}
}
