//go:build linux

package inject

import (
	"fmt"
	"sync"

	"github.com/bendahl/uinput"

	"github.com/edgelink/kvmshare/internal/display"
	"github.com/edgelink/kvmshare/internal/protocol"
)

// linuxInjector replays input through a pair of uinput virtual devices.
// Wire KeyCode values are the Windows VK codes the Host capture layer
// emits; they are translated to evdev keycodes before reaching the
// kernel, since that is what uinput.Keyboard expects.
type linuxInjector struct {
	mu       sync.Mutex
	tracker  *Tracker
	keyboard uinput.Keyboard
	mouse    uinput.Mouse
}

// New creates the uinput virtual keyboard and mouse and returns the Linux
// Injector. It requires /dev/uinput access.
func New(frame display.Frame) (Injector, error) {
	keyboard, err := uinput.CreateKeyboard("/dev/uinput", []byte("kvmshare-keyboard"))
	if err != nil {
		return nil, fmt.Errorf("inject: create virtual keyboard: %w", err)
	}
	mouse, err := uinput.CreateMouse("/dev/uinput", []byte("kvmshare-mouse"))
	if err != nil {
		keyboard.Close()
		return nil, fmt.Errorf("inject: create virtual mouse: %w", err)
	}

	return &linuxInjector{
		tracker:  NewTracker(frame),
		keyboard: keyboard,
		mouse:    mouse,
	}, nil
}

func (l *linuxInjector) Warp(frame display.Frame, x, y float64) error {
	l.mu.Lock()
	l.tracker.SetFrame(frame)
	prevX, prevY := l.tracker.Position()
	cx, cy := l.tracker.SetAbsolute(x, y)
	l.mu.Unlock()
	return l.mouse.Move(int32(cx-prevX), int32(cy-prevY))
}

func (l *linuxInjector) Dispatch(msg protocol.InputMessage) error {
	switch msg.Kind {
	case protocol.KindKeyboard:
		return l.dispatchKey(msg.Keyboard)

	case protocol.KindMouseMotion:
		m := msg.MouseMotion
		l.mu.Lock()
		l.tracker.ApplyDelta(m.DeltaX, m.DeltaY)
		l.mu.Unlock()
		return l.mouse.Move(int32(m.DeltaX), int32(m.DeltaY))

	case protocol.KindMouseButton:
		return l.dispatchButton(msg.MouseButton)

	case protocol.KindScroll:
		return l.dispatchScroll(msg.Scroll)

	case protocol.KindWarpCursor:
		wc := msg.WarpCursor
		l.mu.Lock()
		prevX, prevY := l.tracker.Position()
		cx, cy := l.tracker.SetAbsolute(wc.X, wc.Y)
		l.mu.Unlock()
		return l.mouse.Move(int32(cx-prevX), int32(cy-prevY))

	default:
		return unsupportedEvent(msg.Kind)
	}
}

func (l *linuxInjector) dispatchKey(k *protocol.Keyboard) error {
	code := vkToEvdev(k.KeyCode)
	if code == 0 {
		log.Warn("no evdev mapping for key code, dropping", "keyCode", k.KeyCode)
		return nil
	}
	if k.Event == protocol.KeyUp {
		return l.keyboard.KeyUp(code)
	}
	return l.keyboard.KeyDown(code)
}

func (l *linuxInjector) dispatchButton(b *protocol.MouseButton) error {
	switch b.Event {
	case protocol.ButtonLeftDown:
		return l.mouse.LeftPress()
	case protocol.ButtonLeftUp:
		return l.mouse.LeftRelease()
	case protocol.ButtonRightDown:
		return l.mouse.RightPress()
	case protocol.ButtonRightUp:
		return l.mouse.RightRelease()
	case protocol.ButtonOtherDown:
		return l.mouse.MiddlePress()
	case protocol.ButtonOtherUp:
		return l.mouse.MiddleRelease()
	default:
		return fmt.Errorf("inject: unknown button event %q", b.Event)
	}
}

func (l *linuxInjector) dispatchScroll(s *protocol.Scroll) error {
	if s.DeltaY != 0 {
		if err := l.mouse.Wheel(s.DeltaY < 0, int32(abs(s.DeltaY))); err != nil {
			return err
		}
	}
	if s.DeltaX != 0 {
		return l.mouse.Wheel(s.DeltaX < 0, int32(abs(s.DeltaX)))
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (l *linuxInjector) Close() error {
	kerr := l.keyboard.Close()
	merr := l.mouse.Close()
	if kerr != nil {
		return kerr
	}
	return merr
}

// vkToEvdev maps the subset of Windows VK codes the capture layer
// actually emits (letters, digits, the four tracked modifiers, and the
// common control/navigation keys) to Linux evdev keycodes.
func vkToEvdev(vk uint16) int {
	if code, ok := vkToEvdevTable[vk]; ok {
		return code
	}
	return 0
}

var vkToEvdevTable = map[uint16]int{
	0x08: 14, 0x09: 15, 0x0D: 28, 0x1B: 1, 0x20: 57,
	0x10: 42, 0x11: 29, 0x12: 56, 0x14: 58,
	0x21: 104, 0x22: 109, 0x23: 107, 0x24: 102,
	0x25: 105, 0x26: 103, 0x27: 106, 0x28: 108,
	0x2D: 110, 0x2E: 111,

	0x30: 11, 0x31: 2, 0x32: 3, 0x33: 4, 0x34: 5,
	0x35: 6, 0x36: 7, 0x37: 8, 0x38: 9, 0x39: 10,

	0x41: 30, 0x42: 48, 0x43: 46, 0x44: 32, 0x45: 18,
	0x46: 33, 0x47: 34, 0x48: 35, 0x49: 23, 0x4A: 36,
	0x4B: 37, 0x4C: 38, 0x4D: 50, 0x4E: 49, 0x4F: 24,
	0x50: 25, 0x51: 16, 0x52: 19, 0x53: 31, 0x54: 20,
	0x55: 22, 0x56: 47, 0x57: 17, 0x58: 45, 0x59: 21,
	0x5A: 44,

	0x5B: 125, 0x5C: 126, // LWin/RWin -> LEFTMETA/RIGHTMETA

	0x70: 59, 0x71: 60, 0x72: 61, 0x73: 62, 0x74: 63,
	0x75: 64, 0x76: 65, 0x77: 66, 0x78: 67, 0x79: 68,
	0x7A: 87, 0x7B: 88,

	0xA0: 42, 0xA1: 54, 0xA2: 29, 0xA3: 97, 0xA4: 56, 0xA5: 100,

	0xBA: 39, 0xBB: 13, 0xBC: 51, 0xBD: 12,
	0xBE: 52, 0xBF: 53, 0xC0: 41,
	0xDB: 26, 0xDC: 43, 0xDD: 27, 0xDE: 40,
}
