//go:build linux

package capture

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/edgelink/kvmshare/internal/protocol"
)

// linux input_event layout (struct input_event in linux/input.h), as read
// directly off /dev/input/eventN. There is no third-party evdev-reading
// library in the dependency set this project draws from (uinput, used by
// the injection side, is write-only), so this is a direct little-endian
// decode of the kernel's raw event stream — the same wire format every evdev
// consumer, library or not, ultimately parses.
type inputEvent struct {
	Sec, Usec uint64
	Type      uint16
	Code      uint16
	Value     int32
}

const (
	evKey = 0x01
	evRel = 0x02

	relX     = 0x00
	relY     = 0x01
	relWheel = 0x08

	keyPressed  = 1
	keyReleased = 0

	evdevBtnLeft   = 0x110
	evdevBtnRight  = 0x111
	evdevBtnMiddle = 0x112

)

type linuxSource struct {
	mu      sync.Mutex
	files   []*os.File
	stopped chan struct{}
}

func newPlatformSource() Source {
	return &linuxSource{stopped: make(chan struct{})}
}

// Start opens every /dev/input/eventN device readable by the current
// process and fans their decoded events into sink. Devices that require
// privileges the process doesn't have are skipped with a warning rather
// than failing Start outright, since a desktop session typically exposes
// at least the devices in the "input" group.
func (s *linuxSource) Start(sink Sink) error {
	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return fmt.Errorf("capture: glob /dev/input: %w", err)
	}

	var opened []*os.File
	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			log.Warn("skipping input device", "path", path, "error", err)
			continue
		}
		opened = append(opened, f)
	}
	if len(opened) == 0 {
		return fmt.Errorf("capture: no readable /dev/input devices found")
	}

	s.mu.Lock()
	s.files = opened
	s.mu.Unlock()

	for _, f := range opened {
		go s.readLoop(f, sink)
	}
	return nil
}

func (s *linuxSource) readLoop(f *os.File, sink Sink) {
	buf := make([]byte, 24) // sizeof(struct input_event) on amd64/arm64
	var pendingDX, pendingDY float64

	for {
		select {
		case <-s.stopped:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil || n != len(buf) {
			return
		}

		ev := inputEvent{
			Sec:   binary.LittleEndian.Uint64(buf[0:8]),
			Usec:  binary.LittleEndian.Uint64(buf[8:16]),
			Type:  binary.LittleEndian.Uint16(buf[16:18]),
			Code:  binary.LittleEndian.Uint16(buf[18:20]),
			Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
		}

		switch ev.Type {
		case evKey:
			s.dispatchKey(ev, sink)
		case evRel:
			switch ev.Code {
			case relX:
				pendingDX = float64(ev.Value)
			case relY:
				pendingDY = float64(ev.Value)
				msg := protocol.NewMouseMotion(pendingDX, pendingDY, protocol.MotionMoved)
				sink(msg)
				pendingDX, pendingDY = 0, 0
			case relWheel:
				sink(protocol.NewScroll(0, float64(ev.Value), 0, 0))
			}
		}
	}
}

func (s *linuxSource) dispatchKey(ev inputEvent, sink Sink) {
	if ev.Value != keyPressed && ev.Value != keyReleased {
		return // key-repeat auto-fire, not a transition
	}

	switch ev.Code {
	case evdevBtnLeft, evdevBtnRight, evdevBtnMiddle:
		down := ev.Value == keyPressed
		var down_, up protocol.ButtonEvent
		var n int32
		switch ev.Code {
		case evdevBtnLeft:
			down_, up, n = protocol.ButtonLeftDown, protocol.ButtonLeftUp, 0
		case evdevBtnRight:
			down_, up, n = protocol.ButtonRightDown, protocol.ButtonRightUp, 1
		default:
			down_, up, n = protocol.ButtonOtherDown, protocol.ButtonOtherUp, 2
		}
		event := up
		if down {
			event = down_
		}
		sink(protocol.NewMouseButton(event, n, 1))
	default:
		event := protocol.KeyUp
		if ev.Value == keyPressed {
			event = protocol.KeyDown
		}
		vk := evdevToVK(ev.Code)
		if vk == 0 {
			return
		}
		sink(protocol.NewKeyboard(vk, event, 0))
	}
}

// evdevToVK maps a captured Linux evdev keycode to the Windows VK code
// used as the wire's platform-neutral key identifier (the same
// normalization the injection side's vkToEvdevTable undoes on the way
// back out).
func evdevToVK(evdevCode uint16) uint16 {
	if vk, ok := evdevToVKTable[evdevCode]; ok {
		return vk
	}
	return 0
}

var evdevToVKTable = map[uint16]uint16{
	14: 0x08, 15: 0x09, 28: 0x0D, 1: 0x1B, 57: 0x20,
	42: 0x10, 29: 0x11, 56: 0x12, 58: 0x14,
	104: 0x21, 109: 0x22, 107: 0x23, 102: 0x24,
	105: 0x25, 103: 0x26, 106: 0x27, 108: 0x28,
	110: 0x2D, 111: 0x2E,

	11: 0x30, 2: 0x31, 3: 0x32, 4: 0x33, 5: 0x34,
	6: 0x35, 7: 0x36, 8: 0x37, 9: 0x38, 10: 0x39,

	30: 0x41, 48: 0x42, 46: 0x43, 32: 0x44, 18: 0x45,
	33: 0x46, 34: 0x47, 35: 0x48, 23: 0x49, 36: 0x4A,
	37: 0x4B, 38: 0x4C, 50: 0x4D, 49: 0x4E, 24: 0x4F,
	25: 0x50, 16: 0x51, 19: 0x52, 31: 0x53, 20: 0x54,
	22: 0x55, 47: 0x56, 17: 0x57, 45: 0x58, 21: 0x59,
	44: 0x5A,

	125: 0x5B, 126: 0x5C,

	59: 0x70, 60: 0x71, 61: 0x72, 62: 0x73, 63: 0x74,
	64: 0x75, 65: 0x76, 66: 0x77, 67: 0x78, 68: 0x79,
	87: 0x7A, 88: 0x7B,

	97: 0xA3,

	39: 0xBA, 13: 0xBB, 51: 0xBC, 12: 0xBD,
	52: 0xBE, 53: 0xBF, 41: 0xC0,
	26: 0xDB, 43: 0xDC, 27: 0xDD, 40: 0xDE,
}

func (s *linuxSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stopped:
	default:
		close(s.stopped)
	}
	for _, f := range s.files {
		f.Close()
	}
	return nil
}
