//go:build darwin

package inject

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/edgelink/kvmshare/internal/display"
	"github.com/edgelink/kvmshare/internal/protocol"
)

// darwinInjector replays input using cliclick, falling back to no-op when
// it isn't installed — macOS requires Accessibility permission for either
// cliclick or osascript "System Events" to actually move the pointer.
type darwinInjector struct {
	mu       sync.Mutex
	tracker  *Tracker
	cliclick bool
}

// New returns the macOS Injector.
func New(frame display.Frame) (Injector, error) {
	_, err := exec.LookPath("cliclick")
	return &darwinInjector{tracker: NewTracker(frame), cliclick: err == nil}, nil
}

func (d *darwinInjector) moveTo(x, y float64) error {
	if !d.cliclick {
		return nil
	}
	return exec.Command("cliclick", fmt.Sprintf("m:%d,%d", int(x), int(y))).Run()
}

func (d *darwinInjector) Warp(frame display.Frame, x, y float64) error {
	d.mu.Lock()
	d.tracker.SetFrame(frame)
	cx, cy := d.tracker.SetAbsolute(x, y)
	d.mu.Unlock()
	return d.moveTo(cx, cy)
}

func (d *darwinInjector) button(verb string, n int32) error {
	if !d.cliclick {
		return nil
	}
	var arg string
	switch {
	case verb == "down" && n == 0:
		arg = "dd"
	case verb == "up" && n == 0:
		arg = "du"
	case verb == "down" && n == 1:
		arg = "rd"
	case verb == "up" && n == 1:
		arg = "ru"
	default:
		return nil // middle button has no cliclick verb
	}
	x, y := d.tracker.Position()
	return exec.Command("cliclick", fmt.Sprintf("%s:%d,%d", arg, int(x), int(y))).Run()
}

func (d *darwinInjector) Dispatch(msg protocol.InputMessage) error {
	switch msg.Kind {
	case protocol.KindKeyboard:
		if !d.cliclick {
			return nil
		}
		k := msg.Keyboard
		verb := "kd"
		if k.Event == protocol.KeyUp {
			verb = "ku"
		}
		return exec.Command("cliclick", fmt.Sprintf("%s:%d", verb, k.KeyCode)).Run()

	case protocol.KindMouseMotion:
		m := msg.MouseMotion
		d.mu.Lock()
		x, y := d.tracker.ApplyDelta(m.DeltaX, m.DeltaY)
		d.mu.Unlock()
		return d.moveTo(x, y)

	case protocol.KindMouseButton:
		b := msg.MouseButton
		down := false
		switch b.Event {
		case protocol.ButtonLeftDown, protocol.ButtonRightDown, protocol.ButtonOtherDown:
			down = true
		}
		verb := "up"
		if down {
			verb = "down"
		}
		var n int32
		switch b.Event {
		case protocol.ButtonRightDown, protocol.ButtonRightUp:
			n = 1
		case protocol.ButtonOtherDown, protocol.ButtonOtherUp:
			n = 2
		}
		return d.button(verb, n)

	case protocol.KindScroll:
		if !d.cliclick {
			return nil
		}
		s := msg.Scroll
		x, y := d.tracker.Position()
		return exec.Command("cliclick", fmt.Sprintf("w:%d,%d", int(s.DeltaX), int(s.DeltaY)), fmt.Sprintf("p:%d,%d", int(x), int(y))).Run()

	case protocol.KindWarpCursor:
		wc := msg.WarpCursor
		d.mu.Lock()
		x, y := d.tracker.SetAbsolute(wc.X, wc.Y)
		d.mu.Unlock()
		return d.moveTo(x, y)

	default:
		return unsupportedEvent(msg.Kind)
	}
}

func (d *darwinInjector) Close() error {
	return nil
}
