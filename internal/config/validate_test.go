package config

import (
	"fmt"
	"strings"
	"testing"
)

func validHostConfig() *Config {
	cfg := Default()
	cfg.Role = RoleHost
	cfg.ClientIP = "192.168.1.50"
	cfg.Hotkey = "ctrl+alt+cmd"
	return cfg
}

func TestValidateTieredMissingRoleIsFatal(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("missing role should be fatal")
	}
}

func TestValidateTieredHostWithoutClientIPIsFatal(t *testing.T) {
	cfg := Default()
	cfg.Role = RoleHost
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("host role without client_ip should be fatal")
	}
}

func TestValidateTieredHostInvalidHotkeyIsFatal(t *testing.T) {
	cfg := validHostConfig()
	cfg.Hotkey = "ctrl+banana"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("unparsable hotkey should be fatal")
	}
	found := false
	for _, err := range result.Fatals {
		if strings.Contains(err.Error(), "hotkey") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected hotkey validation error in fatals")
	}
}

func TestValidateTieredPortOutOfRangeIsWarning(t *testing.T) {
	cfg := validHostConfig()
	cfg.Port = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("out-of-range port should be warning, not fatal: %v", result.Fatals)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for out-of-range port")
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("Port = %d, want %d (clamped)", cfg.Port, DefaultPort)
	}
}

func TestValidateTieredEdgeInsetClamping(t *testing.T) {
	cfg := validHostConfig()
	cfg.EdgeInsetPoints = -1
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("negative edge inset should be warning: %v", result.Fatals)
	}
	if cfg.EdgeInsetPoints != 6.0 {
		t.Fatalf("EdgeInsetPoints = %g, want 6.0", cfg.EdgeInsetPoints)
	}
}

func TestValidateTieredReconnectSettleClamping(t *testing.T) {
	cfg := validHostConfig()
	cfg.ReconnectSettleSeconds = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped reconnect settle should be warning: %v", result.Fatals)
	}
	if cfg.ReconnectSettleSeconds != 1 {
		t.Fatalf("ReconnectSettleSeconds = %d, want 1", cfg.ReconnectSettleSeconds)
	}

	cfg.ReconnectSettleSeconds = 999
	result = cfg.ValidateTiered()
	if cfg.ReconnectSettleSeconds != 60 {
		t.Fatalf("ReconnectSettleSeconds = %d, want 60", cfg.ReconnectSettleSeconds)
	}
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := validHostConfig()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown log level should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for unknown log level")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestValidateTieredInvalidLogFormatIsWarning(t *testing.T) {
	cfg := validHostConfig()
	cfg.LogFormat = "xml"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("invalid log format should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for invalid log format")
	}
}

func TestHasFatals(t *testing.T) {
	r := ValidationResult{}
	if r.HasFatals() {
		t.Fatal("HasFatals() on empty result should be false")
	}
	r.Fatals = append(r.Fatals, fmt.Errorf("test error"))
	if !r.HasFatals() {
		t.Fatal("HasFatals() should be true with a fatal error")
	}
}

func TestAllErrorsReturnsBoth(t *testing.T) {
	cfg := Default() // no role set: fatal
	cfg.Port = -1     // warning
	result := cfg.ValidateTiered()

	all := result.AllErrors()
	if len(all) < 2 {
		t.Fatalf("AllErrors() returned %d errors, expected at least 2 (fatals + warnings)", len(all))
	}
}

func TestValidHostConfigHasNoErrors(t *testing.T) {
	cfg := validHostConfig()
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("valid host config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("valid host config has warnings: %v", result.Warnings)
	}
}

func TestValidClientConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	cfg.Role = RoleClient
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("valid client config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("valid client config has warnings: %v", result.Warnings)
	}
}
