package app

import (
	"fmt"
	"net"
	"time"

	"github.com/edgelink/kvmshare/internal/display"
	"github.com/edgelink/kvmshare/internal/edge"
	"github.com/edgelink/kvmshare/internal/inject"
	"github.com/edgelink/kvmshare/internal/protocol"
	"github.com/edgelink/kvmshare/internal/supervisor"
	"github.com/edgelink/kvmshare/internal/transport"
)

// ClientConfig configures the Client role.
type ClientConfig struct {
	ListenAddr string
	EdgeConfig edge.Config
	Frame      display.Frame
}

// Client runs the Client-role process: accepts a single connection from
// the Host, injects every received message as native input, and tracks
// its own screen edge to ask the Host for release back to Local.
type Client struct {
	cfg ClientConfig

	server   *supervisor.Server
	injector inject.Injector
	tracker  *inject.Tracker
	det      *edge.Detector
}

// NewClient builds a Client ready to Run. frame describes the Client's
// active display in its own windowing system's coordinate space.
func NewClient(cfg ClientConfig) (*Client, error) {
	injector, err := inject.New(cfg.Frame)
	if err != nil {
		return nil, fmt.Errorf("app: create injector: %w", err)
	}

	server, err := supervisor.Listen(cfg.ListenAddr)
	if err != nil {
		injector.Close()
		return nil, fmt.Errorf("app: listen: %w", err)
	}

	return &Client{
		cfg:      cfg,
		server:   server,
		injector: injector,
		tracker:  inject.NewTracker(cfg.Frame),
		det:      edge.New(cfg.EdgeConfig),
	}, nil
}

// Addr returns the bound listener address.
func (c *Client) Addr() net.Addr {
	return c.server.Addr()
}

// Run accepts connections and injects their messages until Stop is
// called. It blocks; run it in its own goroutine.
func (c *Client) Run() error {
	return c.server.Serve(c.handleConnection)
}

// Stop closes the listener, the active connection, and the injector.
func (c *Client) Stop() {
	c.server.Close()
	if err := c.injector.Close(); err != nil {
		log.Warn("injector close error", "error", err)
	}
}

func (c *Client) handleConnection(conn *transport.Connection) {
	c.det.Reset()
	if err := conn.Send(protocol.NewScreenInfo(c.cfg.Frame.Width, c.cfg.Frame.Height, false, nil)); err != nil {
		log.Warn("failed to announce screen info", "error", err)
	}
	for msg := range conn.Incoming() {
		if err := c.handleMessage(conn, msg); err != nil {
			log.Warn("dispatch failed", "kind", msg.Kind, "error", err)
		}
	}
}

func (c *Client) handleMessage(conn *transport.Connection, msg protocol.InputMessage) error {
	if msg.Kind == protocol.KindScreenInfo {
		si := msg.ScreenInfo
		c.cfg.Frame = display.Frame{Width: si.Width, Height: si.Height}
		c.tracker.SetFrame(c.cfg.Frame)
		return nil
	}

	if err := c.injector.Dispatch(msg); err != nil {
		return err
	}

	if msg.Kind == protocol.KindWarpCursor {
		c.tracker.SetAbsolute(msg.WarpCursor.X, msg.WarpCursor.Y)
		c.det.RecordWarp(time.Now())
		return nil
	}

	if msg.Kind == protocol.KindMouseMotion {
		x, _ := c.tracker.ApplyDelta(msg.MouseMotion.DeltaX, msg.MouseMotion.DeltaY)
		if c.det.ShouldRelease(time.Now(), x, c.cfg.Frame.MaxX()) {
			return conn.Send(protocol.NewControlRelease())
		}
	}

	return nil
}
