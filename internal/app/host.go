// Package app wires the protocol, control, edge, capture, inject, and
// supervisor packages into the two runnable roles: Host (owns the
// physical keyboard/mouse, dials out) and Client (remotely driven,
// listens).
package app

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/edgelink/kvmshare/internal/capture"
	"github.com/edgelink/kvmshare/internal/control"
	"github.com/edgelink/kvmshare/internal/display"
	"github.com/edgelink/kvmshare/internal/edge"
	"github.com/edgelink/kvmshare/internal/logging"
	"github.com/edgelink/kvmshare/internal/protocol"
	"github.com/edgelink/kvmshare/internal/supervisor"
	"github.com/edgelink/kvmshare/internal/transport"
)

var log = logging.L("app")

// HostConfig configures the Host role.
type HostConfig struct {
	ClientAddr      string
	Hotkey          control.Modifier
	EdgeConfig      edge.Config
	ReconnectSettle time.Duration

	// GlobalLeftEdge describes the Host's own display geometry for
	// edge-crossing purposes; it is in the coordinates the OS reports
	// cursor position in, not the Client's DisplayFrame.
	GlobalLeftEdge float64
}

// Host runs the Host-role process: captures local input, drives the
// control state machine, and forwards events to the Client over a
// self-healing dialed connection.
type Host struct {
	cfg HostConfig

	sm     *control.StateMachine
	router *capture.Router
	source capture.Source
	det    *edge.Detector
	dialer *supervisor.Dialer

	posQuerier capture.PositionQuerier

	mu        sync.Mutex
	conn      *transport.Connection
	lastPtX   float64
	lastPtY   float64
	peerFrame display.Frame
}

// NewHost builds a Host ready to Run.
func NewHost(cfg HostConfig) *Host {
	sm := control.New(cfg.Hotkey)
	det := edge.New(cfg.EdgeConfig)
	source := capture.New()
	posQuerier, _ := source.(capture.PositionQuerier)
	return &Host{
		cfg:        cfg,
		sm:         sm,
		router:     capture.NewRouter(sm),
		source:     source,
		det:        det,
		dialer:     supervisor.NewDialerWithSettle(cfg.ClientAddr, cfg.ReconnectSettle),
		posQuerier: posQuerier,
	}
}

// Run starts the dial loop and the capture hook. It blocks until Stop is
// called from another goroutine.
func (h *Host) Run() error {
	h.sm.OnChange(func(prev, next control.Mode) {
		log.Info("control mode changed", "from", prev, "to", next)
	})

	if err := h.source.Start(h.handleCaptured); err != nil {
		return fmt.Errorf("app: start capture: %w", err)
	}

	h.dialer.Run(h.handleConnection)
	return nil
}

// Stop tears down the dialer and the capture hook.
func (h *Host) Stop() {
	h.dialer.Stop()
	if err := h.source.Stop(); err != nil {
		log.Warn("capture stop error", "error", err)
	}
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (h *Host) handleConnection(raw net.Conn) {
	conn := transport.New(raw, func(state transport.State, err error) {
		if state == transport.StateClosed {
			log.Info("connection to client lost", "error", err)
			h.sm.Reset()
			h.det.Reset()
		}
	})

	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()

	for msg := range conn.Incoming() {
		h.handlePeerMessage(msg)
	}

	h.mu.Lock()
	if h.conn == conn {
		h.conn = nil
	}
	h.mu.Unlock()
}

// handlePeerMessage processes messages arriving from the Client:
// ControlRelease requests a handoff back to Local, and ScreenInfo
// records the Client's display geometry for entry-point warps.
func (h *Host) handlePeerMessage(msg protocol.InputMessage) {
	switch msg.Kind {
	case protocol.KindControlRelease:
		h.sm.RequestRelease()
	case protocol.KindScreenInfo:
		si := msg.ScreenInfo
		h.mu.Lock()
		h.peerFrame = display.Frame{Width: si.Width, Height: si.Height}
		h.mu.Unlock()
	}
}

// warpToPeerEntryPoint lands the Client's cursor at the far-right edge of
// its display when control hands off after a left-edge crossing, mirroring
// the physical cursor leaving the Host's screen on its left and arriving on
// the Client's right.
func (h *Host) warpToPeerEntryPoint() {
	h.mu.Lock()
	conn := h.conn
	frame := h.peerFrame
	y := h.lastPtY
	h.mu.Unlock()

	if conn == nil || frame.Width <= 0 {
		return
	}
	x, y := frame.Clamp(frame.MaxX()-1, y)
	if err := conn.Send(protocol.NewWarpCursor(x, y)); err != nil {
		log.Warn("failed to send entry warp", "error", err)
	}
}

// handleCaptured is the capture.Sink invoked for every native input
// event translated by the platform Source. It is the single-writer
// entry point into both the edge detector and the control state
// machine, per the concurrency model's single-writer invariant.
func (h *Host) handleCaptured(msg protocol.InputMessage) bool {
	now := time.Now()

	if msg.Kind == protocol.KindMouseMotion && h.sm.Mode() == control.Local {
		mm := msg.MouseMotion
		x, y, ok := h.currentPosition()
		if !ok {
			x = h.lastPtX + mm.DeltaX
			y = h.lastPtY + mm.DeltaY
		}
		entered := false
		if h.det.ShouldEnterRemote(now, x, 0, mm.DeltaX, h.cfg.GlobalLeftEdge) {
			h.sm.RequestEnterRemote()
			entered = true
		}
		h.mu.Lock()
		h.lastPtX, h.lastPtY = x, y
		h.mu.Unlock()
		if entered {
			h.warpToPeerEntryPoint()
		}
	}

	var suppress, forward bool
	if msg.Kind == protocol.KindKeyboard {
		suppress, forward = h.router.HandleKeyboard(msg)
	} else {
		suppress, forward = h.router.HandleNonKeyboard()
	}

	if forward {
		h.mu.Lock()
		conn := h.conn
		h.mu.Unlock()
		if conn != nil {
			if err := conn.Send(msg); err != nil {
				log.Warn("send failed", "error", err)
			}
		}
	}

	return suppress
}

// currentPosition returns the Host's authoritative cursor position when
// the platform Source can report one directly; otherwise it reports
// ok=false and the caller falls back to accumulating deltas from an
// assumed origin, a necessary approximation on platforms with no
// absolute cursor query available to a raw input tap (evdev on Linux;
// the unimplemented macOS tap).
func (h *Host) currentPosition() (x, y float64, ok bool) {
	if h.posQuerier == nil {
		return 0, 0, false
	}
	return h.posQuerier.Position()
}
