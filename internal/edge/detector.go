// Package edge implements the cooldown/grace-windowed screen-edge crossing
// detector shared by the Host (deciding when to enter Remote mode) and
// the Client (deciding when to ask for control to be released back to
// Local).
//
// Unlike a poll-loop edge detector (the shape used when the compositor
// gives no cursor-position query, as in a Wayland barrier), this detector
// is driven synchronously from captured motion events: the capture/inject
// layers already see every motion at input rate, so there is nothing a
// background poller would catch sooner.
package edge

import "time"

// Config holds the detector's tuning constants. These are treated as
// immutable after construction.
type Config struct {
	// EdgeInset is the distance from a screen boundary at which "edge
	// reached" is declared.
	EdgeInset float64
	// Cooldown is the minimum time between two successive edge hits.
	Cooldown time.Duration
	// GraceAfterWarp suppresses edge hits for this long after a warp, so
	// the warp itself (which lands the cursor near an edge) does not
	// immediately retrigger a crossing.
	GraceAfterWarp time.Duration
}

// DefaultConfig returns the constants named in the wire/behavior contract:
// a 6pt inset, a 250ms cooldown, and a 500ms post-warp grace window.
func DefaultConfig() Config {
	return Config{
		EdgeInset:      6.0,
		Cooldown:       250 * time.Millisecond,
		GraceAfterWarp: 500 * time.Millisecond,
	}
}

// Detector is a small, pure state machine with two decision operations.
// It is not safe for concurrent use — callers must serialize access to a
// single writer goroutine, per the single-writer invariant shared with the
// control state machine.
type Detector struct {
	cfg Config

	lastPointX, lastPointY float64
	lastHitTime            time.Time
	lastWarpTime           time.Time
}

// New creates a Detector with the given configuration.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// NewDefault creates a Detector using DefaultConfig.
func NewDefault() *Detector {
	return New(DefaultConfig())
}

func (d *Detector) onCooldown(now time.Time) bool {
	if !d.lastHitTime.IsZero() && now.Sub(d.lastHitTime) < d.cfg.Cooldown {
		return true
	}
	if !d.lastWarpTime.IsZero() && now.Sub(d.lastWarpTime) < d.cfg.GraceAfterWarp {
		return true
	}
	return false
}

// ShouldEnterRemote is called on the Host side while the control state
// machine is Local. It decides whether the physical cursor has crossed
// the monitored left edge, moving left, and is not within a cooldown or
// post-warp grace window — the signal that control should hand off to
// the Client.
func (d *Detector) ShouldEnterRemote(now time.Time, pointX, pointY, deltaX, globalLeftEdge float64) bool {
	defer func() {
		d.lastPointX, d.lastPointY = pointX, pointY
	}()

	if d.onCooldown(now) {
		return false
	}

	if pointX > globalLeftEdge+d.cfg.EdgeInset {
		return false
	}

	movingLeft := deltaX < -0.5 ||
		pointX < d.lastPointX ||
		(deltaX == 0 && pointX <= globalLeftEdge)
	if !movingLeft {
		return false
	}

	d.lastHitTime = now
	return true
}

// ShouldRelease is called on the Client side against its own tracked
// cursor position while the Host is driving it remotely. It decides
// whether the cursor has reached the monitored right edge of the active
// display, subject to the same cooldown/grace guards; a true result
// means the Client should send ControlRelease back to the Host.
func (d *Detector) ShouldRelease(now time.Time, pointX, displayMaxX float64) bool {
	if d.onCooldown(now) {
		return false
	}

	if pointX < displayMaxX-d.cfg.EdgeInset {
		return false
	}

	d.lastHitTime = now
	return true
}

// RecordWarp arms the post-warp grace window from now.
func (d *Detector) RecordWarp(now time.Time) {
	d.lastWarpTime = now
}

// Reset zeros all timestamps and the tracked last point. Called on any
// Connection Ready -> not-Ready transition.
func (d *Detector) Reset() {
	d.lastPointX, d.lastPointY = 0, 0
	d.lastHitTime = time.Time{}
	d.lastWarpTime = time.Time{}
}
