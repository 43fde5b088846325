//go:build windows

package capture

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/edgelink/kvmshare/internal/protocol"
)

var (
	user32                 = syscall.NewLazyDLL("user32.dll")
	kernel32               = syscall.NewLazyDLL("kernel32.dll")
	procSetWindowsHookExW  = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx     = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
	procGetModuleHandleW   = kernel32.NewProc("GetModuleHandleW")
	procGetCurrentThreadId = kernel32.NewProc("GetCurrentThreadId")
	procGetCursorPos       = user32.NewProc("GetCursorPos")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmQuit        = 0x0012
)

type kbdllHookStruct struct {
	vkCode, scanCode uint32
	flags, time      uint32
	dwExtraInfo      uintptr
}

type msllHookStruct struct {
	pt          struct{ x, y int32 }
	mouseData   uint32
	flags, time uint32
	dwExtraInfo uintptr
}

// windowsSource installs low-level keyboard and mouse hooks via
// SetWindowsHookEx. Both hook callbacks and the message pump that keeps
// them alive must run on the same OS thread, so Start runs them on a new
// goroutine locked to its OS thread for the lifetime of the hook.
type windowsSource struct {
	mu             sync.Mutex
	kbHook         uintptr
	msHook         uintptr
	threadID       uintptr
	lastX, lastY   int32
	haveLastPoint  bool
}

func newPlatformSource() Source {
	return &windowsSource{}
}

func (s *windowsSource) Start(sink Sink) error {
	errCh := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		tid, _, _ := procGetCurrentThreadId.Call()
		s.mu.Lock()
		s.threadID = tid
		s.mu.Unlock()

		mod, _, _ := procGetModuleHandleW.Call(0)

		kbProc := syscall.NewCallback(func(nCode int32, wparam, lparam uintptr) uintptr {
			if nCode >= 0 {
				ev := (*kbdllHookStruct)(unsafe.Pointer(lparam))
				down := wparam == wmKeyDown || wparam == wmSysKeyDown
				up := wparam == wmKeyUp || wparam == wmSysKeyUp
				if down || up {
					event := protocol.KeyUp
					if down {
						event = protocol.KeyDown
					}
					msg := protocol.NewKeyboard(uint16(ev.vkCode), event, 0)
					if sink(msg) {
						return 1
					}
				}
			}
			ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wparam, lparam)
			return ret
		})

		msProc := syscall.NewCallback(func(nCode int32, wparam, lparam uintptr) uintptr {
			if nCode >= 0 {
				ev := (*msllHookStruct)(unsafe.Pointer(lparam))
				if msg, ok := s.translateMouse(wparam, ev); ok {
					if sink(msg) {
						return 1
					}
				}
			}
			ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wparam, lparam)
			return ret
		})

		kb, _, _ := procSetWindowsHookExW.Call(whKeyboardLL, kbProc, mod, 0)
		if kb == 0 {
			errCh <- fmt.Errorf("capture: SetWindowsHookEx (keyboard) failed")
			return
		}
		ms, _, _ := procSetWindowsHookExW.Call(whMouseLL, msProc, mod, 0)
		if ms == 0 {
			procUnhookWindowsHookEx.Call(kb)
			errCh <- fmt.Errorf("capture: SetWindowsHookEx (mouse) failed")
			return
		}

		s.mu.Lock()
		s.kbHook, s.msHook = kb, ms
		s.mu.Unlock()

		errCh <- nil

		var m [6]uintptr // MSG struct is larger than this on the Go side but GetMessageW only reads/writes through the pointer
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if ret == 0 {
				return
			}
		}
	}()

	return <-errCh
}

func (s *windowsSource) translateMouse(wparam uintptr, ev *msllHookStruct) (protocol.InputMessage, bool) {
	switch wparam {
	case wmMouseMove:
		dx, dy := float64(0), float64(0)
		if s.haveLastPoint {
			dx = float64(ev.pt.x - s.lastX)
			dy = float64(ev.pt.y - s.lastY)
		}
		s.lastX, s.lastY = ev.pt.x, ev.pt.y
		s.haveLastPoint = true
		return protocol.NewMouseMotion(dx, dy, protocol.MotionMoved), true
	case wmLButtonDown:
		return protocol.NewMouseButton(protocol.ButtonLeftDown, 0, 1), true
	case wmLButtonUp:
		return protocol.NewMouseButton(protocol.ButtonLeftUp, 0, 1), true
	case wmRButtonDown:
		return protocol.NewMouseButton(protocol.ButtonRightDown, 1, 1), true
	case wmRButtonUp:
		return protocol.NewMouseButton(protocol.ButtonRightUp, 1, 1), true
	case wmMButtonDown:
		return protocol.NewMouseButton(protocol.ButtonOtherDown, 2, 1), true
	case wmMButtonUp:
		return protocol.NewMouseButton(protocol.ButtonOtherUp, 2, 1), true
	case wmMouseWheel:
		delta := int16(ev.mouseData >> 16)
		return protocol.NewScroll(0, float64(delta)/120, 0, 0), true
	default:
		return protocol.InputMessage{}, false
	}
}

// Position queries the current screen cursor position directly via
// GetCursorPos, independent of the motion-delta stream, so the Host's
// edge detector can work from the OS's authoritative coordinate rather
// than an accumulated approximation.
func (s *windowsSource) Position() (x, y float64, ok bool) {
	var pt struct{ x, y int32 }
	ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, false
	}
	return float64(pt.x), float64(pt.y), true
}

func (s *windowsSource) Stop() error {
	s.mu.Lock()
	kb, ms, tid := s.kbHook, s.msHook, s.threadID
	s.mu.Unlock()

	if kb != 0 {
		procUnhookWindowsHookEx.Call(kb)
	}
	if ms != 0 {
		procUnhookWindowsHookEx.Call(ms)
	}
	if tid != 0 {
		procPostThreadMessageW.Call(tid, wmQuit, 0, 0)
	}
	return nil
}
