//go:build darwin

package capture

import (
	"fmt"
)

// darwinSource is a placeholder: global event capture on macOS requires a
// CGEventTap, which needs cgo and an Accessibility-permission-granted
// process. No pack dependency provides a pure-Go CGEventTap binding, so
// this is left unimplemented rather than faked; Start reports the gap
// immediately instead of silently capturing nothing.
type darwinSource struct{}

func newPlatformSource() Source {
	return &darwinSource{}
}

func (darwinSource) Start(sink Sink) error {
	return fmt.Errorf("capture: macOS capture requires a CGEventTap binding not available in this build")
}

func (darwinSource) Stop() error { return nil }
