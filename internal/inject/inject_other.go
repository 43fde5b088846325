//go:build !windows && !linux && !darwin

package inject

import (
	"fmt"

	"github.com/edgelink/kvmshare/internal/display"
	"github.com/edgelink/kvmshare/internal/protocol"
)

type unsupportedInjector struct{}

// New returns a no-op Injector on platforms with no native backend wired
// up. Every Dispatch fails, so a client misconfigured onto one of these
// targets finds out immediately rather than silently dropping input.
func New(_ display.Frame) (Injector, error) {
	return unsupportedInjector{}, nil
}

func (unsupportedInjector) Dispatch(msg protocol.InputMessage) error {
	return fmt.Errorf("inject: no injection backend for this platform (kind %q)", msg.Kind)
}

func (unsupportedInjector) Warp(_ display.Frame, _, _ float64) error {
	return fmt.Errorf("inject: no injection backend for this platform")
}

func (unsupportedInjector) Close() error { return nil }
