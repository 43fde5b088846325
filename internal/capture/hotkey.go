package capture

import (
	"fmt"
	"strings"

	"github.com/edgelink/kvmshare/internal/control"
)

// ParseHotkey parses a '+'-joined combo of modifier names (e.g.
// "ctrl+alt", "cmd+shift") into a control.Modifier bitmask. Case is
// ignored. An empty token, an unknown modifier name, or a combo with no
// recognised modifiers at all is an error.
func ParseHotkey(combo string) (control.Modifier, error) {
	tokens := strings.Split(combo, "+")
	var mods control.Modifier

	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		switch tok {
		case "ctrl", "control":
			mods |= control.ModCtrl
		case "alt", "option":
			mods |= control.ModAlt
		case "cmd", "command", "meta", "super", "win":
			mods |= control.ModCmd
		case "shift":
			mods |= control.ModShift
		default:
			return 0, fmt.Errorf("capture: unknown hotkey token %q in %q", tok, combo)
		}
	}

	if mods == 0 {
		return 0, fmt.Errorf("capture: hotkey %q names no recognised modifier", combo)
	}
	return mods, nil
}
