// Package capture implements the Host-side input capture engine: hooking
// the local OS's global keyboard and mouse input stream, translating each
// native event into a protocol.InputMessage, and deciding — via the
// control state machine and the modifier-tracking rules it owns — whether
// the event should additionally be suppressed from local delivery.
package capture

import (
	"github.com/edgelink/kvmshare/internal/control"
	"github.com/edgelink/kvmshare/internal/logging"
	"github.com/edgelink/kvmshare/internal/protocol"
)

var log = logging.L("capture")

// Sink receives captured events already translated to wire messages. The
// bool return reports whether the originating native event should be
// suppressed (swallowed) rather than passed through to the local OS.
type Sink func(msg protocol.InputMessage) (suppress bool)

// Source is a platform-specific global input hook. Start installs the
// hook and begins delivering events to sink until Stop is called or the
// process's event loop requirement (Windows: a message pump; others:
// none) is satisfied by the caller.
type Source interface {
	Start(sink Sink) error
	Stop() error
}

// New returns the Source for the host OS.
func New() Source {
	return newPlatformSource()
}

// PositionQuerier is implemented by platform Sources that can report the
// system cursor's absolute position independent of the motion-delta
// stream (Windows via GetCursorPos). Sources without a windowing-system
// position query (raw evdev on Linux, the unimplemented macOS tap) do
// not implement it; callers type-assert and fall back to accumulating
// deltas from an assumed origin when it is absent.
type PositionQuerier interface {
	Position() (x, y float64, ok bool)
}

// Router sits between a platform Source and the control state machine. It
// owns no I/O; it is pure translation and is exercised directly by tests
// with synthetic events, independent of any platform hook.
type Router struct {
	sm *control.StateMachine
}

// NewRouter creates a Router bound to sm. HandleKeyboard itself calls
// sm.SetModifierHeld for every tracked-modifier key event, so platform
// Sources only deliver events to their Sink; the held-modifier
// bookkeeping lives entirely in the state machine.
func NewRouter(sm *control.StateMachine) *Router {
	return &Router{sm: sm}
}

// Windows VK codes for the four tracked modifiers, in both their generic
// and left/right-specific forms. Every platform Source normalizes its
// native keycode to this space before emitting a Keyboard message (see
// capture_linux.go's evdevToVKTable), so ModifierForKeyCode is shared
// rather than duplicated per platform.
const (
	vkShift    = 0x10
	vkControl  = 0x11
	vkMenu     = 0x12
	vkLWin     = 0x5B
	vkRWin     = 0x5C
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5
)

// ModifierForKeyCode maps a wire-level (VK-normalized) key code to the
// control.Modifier it represents, or 0 if the key is not one of the four
// tracked modifiers.
func ModifierForKeyCode(vk uint16) control.Modifier {
	switch uint16(vk) {
	case vkControl, vkLControl, vkRControl:
		return control.ModCtrl
	case vkMenu, vkLMenu, vkRMenu:
		return control.ModAlt
	case vkLWin, vkRWin:
		return control.ModCmd
	case vkShift, vkLShift, vkRShift:
		return control.ModShift
	default:
		return 0
	}
}

// HandleKeyboard routes a captured Keyboard message through the control
// state machine, resolving its modifier via ModifierForKeyCode.
func (r *Router) HandleKeyboard(msg protocol.InputMessage) (suppress bool, forward bool) {
	k := msg.Keyboard
	mod := ModifierForKeyCode(k.KeyCode)
	if mod != 0 {
		r.sm.SetModifierHeld(mod, k.Event == protocol.KeyDown)
		if toggled := r.sm.HandleHotkey(); toggled {
			// The hotkey combo itself is never forwarded or passed
			// through locally — it is consumed as a control gesture.
			return true, false
		}
	}

	switch r.sm.Mode() {
	case control.Local:
		return false, false
	case control.Remote:
		return true, true
	case control.PendingRelease:
		// The event is routed as part of the release first; the switch to
		// Local happens only after it, once no tracked modifier is held.
		r.sm.NoteModifiersReleased()
		if k.Event == protocol.KeyUp && r.sm.SuppressLocalKeyUp() {
			return true, true
		}
		return true, true
	default:
		return false, false
	}
}

// HandleNonKeyboard routes any non-keyboard message (motion, button,
// scroll, gesture) by the current mode alone: Local passes it straight
// through unsuppressed; Remote and PendingRelease suppress it locally and
// forward it, since suppression of non-modifier input across the release
// handshake is harmless (there is no stuck-key risk for momentary
// button/motion events). In PendingRelease with no tracked modifier held,
// the event also completes the release, so the next event is Local.
func (r *Router) HandleNonKeyboard() (suppress bool, forward bool) {
	switch r.sm.Mode() {
	case control.Local:
		return false, false
	case control.PendingRelease:
		r.sm.NoteModifiersReleased()
		return true, true
	default:
		return true, true
	}
}
