//go:build windows

package inject

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/edgelink/kvmshare/internal/display"
	"github.com/edgelink/kvmshare/internal/protocol"
)

var (
	user32        = syscall.NewLazyDLL("user32.dll")
	sendInput     = user32.NewProc("SendInput")
	setCursorPos  = user32.NewProc("SetCursorPos")
	mapVirtualKey = user32.NewProc("MapVirtualKeyW")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfMove      = 0x0001
	mouseeventfLeftDown  = 0x0002
	mouseeventfLeftUp    = 0x0004
	mouseeventfRightDown = 0x0008
	mouseeventfRightUp   = 0x0010
	mouseeventfMidDown   = 0x0020
	mouseeventfMidUp     = 0x0040
	mouseeventfWheel     = 0x0800
	mouseeventfHWheel    = 0x1000

	keyeventfKeyUp       = 0x0002
	keyeventfExtendedKey = 0x0001

	mapvkVkToVsc = 0

	wheelDelta = 120
)

type mouseInput struct {
	dx, dy      int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	padding   [4]byte
	mi        mouseInput
}

// windowsInjector replays input using SendInput for keyboard/button/wheel
// events and SetCursorPos for positioning, adapting the remote-desktop
// SendInput idiom to the delta/WarpCursor wire model: every motion message
// resolves to an absolute point via the shared Tracker before the
// SetCursorPos call.
type windowsInjector struct {
	mu      sync.Mutex
	tracker *Tracker
}

// New returns the Windows Injector.
func New(frame display.Frame) (Injector, error) {
	return &windowsInjector{tracker: NewTracker(frame)}, nil
}

func (w *windowsInjector) Warp(frame display.Frame, x, y float64) error {
	w.mu.Lock()
	w.tracker.SetFrame(frame)
	cx, cy := w.tracker.SetAbsolute(x, y)
	w.mu.Unlock()
	return w.moveTo(cx, cy)
}

func (w *windowsInjector) moveTo(x, y float64) error {
	ret, _, _ := setCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if ret == 0 {
		return fmt.Errorf("inject: SetCursorPos failed")
	}
	return nil
}

func (w *windowsInjector) sendMouseInput(flags uint32, data uint32) error {
	inp := input{inputType: inputMouse}
	inp.mi.dwFlags = flags
	inp.mi.mouseData = data
	ret, _, _ := sendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("inject: SendInput (mouse) failed")
	}
	return nil
}

func (w *windowsInjector) sendKeyInput(vk uint16, up bool) error {
	inp := input{inputType: inputKeyboard}
	ki := (*keybdInput)(unsafe.Pointer(&inp.mi))
	ki.wVk = vk
	sc, _, _ := mapVirtualKey.Call(uintptr(vk), mapvkVkToVsc)
	ki.wScan = uint16(sc)
	if isExtendedKey(vk) {
		ki.dwFlags |= keyeventfExtendedKey
	}
	if up {
		ki.dwFlags |= keyeventfKeyUp
	}
	ret, _, _ := sendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("inject: SendInput (key) failed vk=0x%X", vk)
	}
	return nil
}

func isExtendedKey(vk uint16) bool {
	switch vk {
	case 0x21, 0x22, 0x23, 0x24,
		0x25, 0x26, 0x27, 0x28,
		0x2D, 0x2E,
		0x5B, 0x5C,
		0x6F, 0x90, 0x91, 0x2C:
		return true
	}
	return false
}

func (w *windowsInjector) Dispatch(msg protocol.InputMessage) error {
	switch msg.Kind {
	case protocol.KindKeyboard:
		k := msg.Keyboard
		return w.sendKeyInput(k.KeyCode, k.Event == protocol.KeyUp)

	case protocol.KindMouseMotion:
		m := msg.MouseMotion
		w.mu.Lock()
		x, y := w.tracker.ApplyDelta(m.DeltaX, m.DeltaY)
		w.mu.Unlock()
		return w.moveTo(x, y)

	case protocol.KindMouseButton:
		return w.dispatchButton(msg.MouseButton)

	case protocol.KindScroll:
		s := msg.Scroll
		if s.DeltaY != 0 {
			if err := w.sendMouseInput(mouseeventfWheel, uint32(int32(s.DeltaY*wheelDelta))); err != nil {
				return err
			}
		}
		if s.DeltaX != 0 {
			return w.sendMouseInput(mouseeventfHWheel, uint32(int32(s.DeltaX*wheelDelta)))
		}
		return nil

	case protocol.KindWarpCursor:
		wc := msg.WarpCursor
		w.mu.Lock()
		x, y := w.tracker.SetAbsolute(wc.X, wc.Y)
		w.mu.Unlock()
		return w.moveTo(x, y)

	default:
		return unsupportedEvent(msg.Kind)
	}
}

func (w *windowsInjector) dispatchButton(b *protocol.MouseButton) error {
	switch b.Event {
	case protocol.ButtonLeftDown:
		return w.sendMouseInput(mouseeventfLeftDown, 0)
	case protocol.ButtonLeftUp:
		return w.sendMouseInput(mouseeventfLeftUp, 0)
	case protocol.ButtonRightDown:
		return w.sendMouseInput(mouseeventfRightDown, 0)
	case protocol.ButtonRightUp:
		return w.sendMouseInput(mouseeventfRightUp, 0)
	case protocol.ButtonOtherDown:
		return w.sendMouseInput(mouseeventfMidDown, 0)
	case protocol.ButtonOtherUp:
		return w.sendMouseInput(mouseeventfMidUp, 0)
	default:
		return fmt.Errorf("inject: unknown button event %q", b.Event)
	}
}

func (w *windowsInjector) Close() error {
	return nil
}
