package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/edgelink/kvmshare/internal/capture"
)

// ValidationResult separates validation problems into Fatals, which
// abort startup, and Warnings, which are logged while the offending
// field is clamped to a safe value in place.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r *ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// AllErrors returns Fatals followed by Warnings, for callers that just
// want to log everything regardless of tier.
func (r *ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

func (r *ValidationResult) fatal(format string, args ...any) {
	r.Fatals = append(r.Fatals, fmt.Errorf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Errorf(format, args...))
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateTiered checks c for invalid values, clamping recoverable ones
// to a safe default and reporting them as warnings; values that leave
// the process unable to start at all (an unusable role, an unparsable
// hotkey) are reported as fatals instead.
func (c *Config) ValidateTiered() *ValidationResult {
	r := &ValidationResult{}

	switch c.Role {
	case RoleHost, RoleClient:
	default:
		r.fatal("role %q must be %q or %q", c.Role, RoleHost, RoleClient)
	}

	if c.Role == RoleHost {
		if c.ClientIP == "" {
			r.fatal("host role requires client_ip")
		} else if _, _, err := net.SplitHostPort(withDefaultPort(c.ClientIP, c.Port)); err != nil {
			r.fatal("client_ip %q is not a valid address: %w", c.ClientIP, err)
		}

		if _, err := capture.ParseHotkey(c.Hotkey); err != nil {
			r.fatal("hotkey %q is invalid: %w", c.Hotkey, err)
		}
	}

	if c.Port < 1 || c.Port > 65535 {
		r.warn("port %d out of range, using default %d", c.Port, DefaultPort)
		c.Port = DefaultPort
	}

	if c.EdgeInsetPoints <= 0 {
		r.warn("edge_inset_points %g is non-positive, using 6.0", c.EdgeInsetPoints)
		c.EdgeInsetPoints = 6.0
	}

	if c.EdgeCooldownMs < 0 {
		r.warn("edge_cooldown_ms %d is negative, using 250", c.EdgeCooldownMs)
		c.EdgeCooldownMs = 250
	}

	if c.EdgeGraceAfterWarpMs < 0 {
		r.warn("edge_grace_after_warp_ms %d is negative, using 500", c.EdgeGraceAfterWarpMs)
		c.EdgeGraceAfterWarpMs = 500
	}

	if c.ReconnectSettleSeconds < 1 {
		r.warn("reconnect_settle_seconds %d is below minimum 1, clamping", c.ReconnectSettleSeconds)
		c.ReconnectSettleSeconds = 1
	} else if c.ReconnectSettleSeconds > 60 {
		r.warn("reconnect_settle_seconds %d exceeds maximum 60, clamping", c.ReconnectSettleSeconds)
		c.ReconnectSettleSeconds = 60
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.warn("log_level %q is not valid (use debug, info, warn, error), using info", c.LogLevel)
		c.LogLevel = "info"
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.warn("log_format %q is not valid (use text or json), using text", c.LogFormat)
		c.LogFormat = "text"
	}

	return r
}

func withDefaultPort(host string, port int) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return fmt.Sprintf("%s:%d", host, port)
}
