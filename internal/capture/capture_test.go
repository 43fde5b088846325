package capture

import (
	"testing"

	"github.com/edgelink/kvmshare/internal/control"
	"github.com/edgelink/kvmshare/internal/protocol"
)

func TestRouterLocalModePassesThroughUnsuppressed(t *testing.T) {
	sm := control.New(control.ModCtrl | control.ModAlt)
	r := NewRouter(sm)

	msg := protocol.NewKeyboard(0x41, protocol.KeyDown, 0)
	suppress, forward := r.HandleKeyboard(msg)
	if suppress || forward {
		t.Fatalf("got suppress=%v forward=%v, want false,false in Local mode", suppress, forward)
	}
}

func TestRouterHotkeyTogglesAndConsumesTheComboItself(t *testing.T) {
	sm := control.New(control.ModCtrl | control.ModAlt)
	r := NewRouter(sm)

	r.HandleKeyboard(protocol.NewKeyboard(0x11, protocol.KeyDown, 0))
	suppress, forward := r.HandleKeyboard(protocol.NewKeyboard(0x12, protocol.KeyDown, 0))

	if !suppress || forward {
		t.Fatalf("got suppress=%v forward=%v, want true,false for the hotkey-completing key", suppress, forward)
	}
	if sm.Mode() != control.Remote {
		t.Fatalf("mode = %v, want Remote", sm.Mode())
	}
}

func TestRouterRemoteModeForwardsAndSuppresses(t *testing.T) {
	sm := control.New(control.ModCtrl | control.ModAlt)
	sm.RequestEnterRemote()
	r := NewRouter(sm)

	suppress, forward := r.HandleKeyboard(protocol.NewKeyboard(0x41, protocol.KeyDown, 0))
	if !suppress || !forward {
		t.Fatalf("got suppress=%v forward=%v, want true,true in Remote mode", suppress, forward)
	}
}

func TestRouterNonKeyboardFollowsMode(t *testing.T) {
	sm := control.New(control.ModCtrl | control.ModAlt)
	r := NewRouter(sm)

	if suppress, forward := r.HandleNonKeyboard(); suppress || forward {
		t.Fatalf("got suppress=%v forward=%v, want false,false in Local mode", suppress, forward)
	}

	sm.RequestEnterRemote()
	if suppress, forward := r.HandleNonKeyboard(); !suppress || !forward {
		t.Fatalf("got suppress=%v forward=%v, want true,true in Remote mode", suppress, forward)
	}
}
