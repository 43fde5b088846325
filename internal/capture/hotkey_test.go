package capture

import (
	"testing"

	"github.com/edgelink/kvmshare/internal/control"
)

func TestParseHotkeyCombo(t *testing.T) {
	got, err := ParseHotkey("ctrl+alt")
	if err != nil {
		t.Fatalf("ParseHotkey: %v", err)
	}
	if got != control.ModCtrl|control.ModAlt {
		t.Fatalf("got %v, want ModCtrl|ModAlt", got)
	}
}

func TestParseHotkeyCaseInsensitiveAndAliases(t *testing.T) {
	got, err := ParseHotkey("Command+Shift")
	if err != nil {
		t.Fatalf("ParseHotkey: %v", err)
	}
	if got != control.ModCmd|control.ModShift {
		t.Fatalf("got %v, want ModCmd|ModShift", got)
	}
}

func TestParseHotkeyRejectsUnknownToken(t *testing.T) {
	if _, err := ParseHotkey("ctrl+banana"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestParseHotkeyRejectsEmpty(t *testing.T) {
	if _, err := ParseHotkey(""); err == nil {
		t.Fatal("expected error for empty combo")
	}
}
