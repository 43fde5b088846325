// Package inject implements the Client-side injection engine: replaying a
// decoded InputMessage as a real OS-level input event on the machine that
// currently owns the shared keyboard and mouse.
package inject

import (
	"fmt"
	"sync"

	"github.com/edgelink/kvmshare/internal/display"
	"github.com/edgelink/kvmshare/internal/logging"
	"github.com/edgelink/kvmshare/internal/protocol"
)

var log = logging.L("inject")

// Injector replays protocol messages as native input on the local OS.
// Implementations are platform-specific; New returns the one built for
// the host OS.
type Injector interface {
	// Dispatch replays a single message. Motion-class messages may be
	// coalesced by the caller before reaching Dispatch; Dispatch itself
	// performs no batching.
	Dispatch(msg protocol.InputMessage) error

	// Warp sets the absolute cursor position, clamped to frame.
	Warp(frame display.Frame, x, y float64) error

	// Close releases any OS resources (open handles, locked threads)
	// held by the injector.
	Close() error
}

// Tracker maintains the running cursor position implied by a sequence of
// relative MouseMotion deltas plus absolute WarpCursor messages, clamping
// every result to the active display frame. The Windows (SetCursorPos)
// and macOS (cliclick) injectors move to the absolute point it returns;
// the Linux uinput injector moves relatively and uses it to turn a warp
// into an offset. It is the one stateful piece shared across all of them.
type Tracker struct {
	mu    sync.Mutex
	frame display.Frame
	x, y  float64
}

// NewTracker creates a Tracker positioned at the center of frame.
func NewTracker(frame display.Frame) *Tracker {
	t := &Tracker{frame: frame}
	t.x = frame.MinX() + frame.Width/2
	t.y = frame.MinY() + frame.Height/2
	return t
}

// SetFrame updates the active display frame, re-clamping the tracked
// position into it. Called when ScreenInfo announces a new active
// display.
func (t *Tracker) SetFrame(frame display.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frame = frame
	t.x, t.y = frame.Clamp(t.x, t.y)
}

// ApplyDelta advances the tracked position by (dx, dy), clamps it to the
// active frame, and returns the new absolute position.
func (t *Tracker) ApplyDelta(dx, dy float64) (x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.x, t.y = t.frame.Clamp(t.x+dx, t.y+dy)
	return t.x, t.y
}

// SetAbsolute clamps (x, y) into the active frame, stores it as the
// tracked position, and returns the clamped result. Called for
// WarpCursor.
func (t *Tracker) SetAbsolute(x, y float64) (clampedX, clampedY float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.x, t.y = t.frame.Clamp(x, y)
	return t.x, t.y
}

// Position returns the currently tracked absolute position.
func (t *Tracker) Position() (x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.x, t.y
}

// unsupportedEvent builds the error returned when Dispatch receives a Kind
// the platform injector has no handling for.
func unsupportedEvent(kind protocol.Kind) error {
	return fmt.Errorf("inject: unsupported event kind %q", kind)
}
