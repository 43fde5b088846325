// Package config loads and validates the settings for both the Host and
// Client roles from a YAML file, environment variables, and CLI flags,
// in that increasing order of precedence, via viper/mapstructure.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/edgelink/kvmshare/internal/logging"
)

var log = logging.L("config")

// Role selects which half of the pairing this process runs.
type Role string

const (
	RoleHost   Role = "host"
	RoleClient Role = "client"
)

// DefaultPort is the canonical TCP port for the Client-role listener.
const DefaultPort = 9876

type Config struct {
	Role Role `mapstructure:"role"`

	// Host-role fields.
	ClientIP string `mapstructure:"client_ip"`
	Hotkey   string `mapstructure:"hotkey"`

	// Client-role fields.
	Port    int  `mapstructure:"port"`
	Verbose bool `mapstructure:"verbose"`

	// Shared edge-detector tuning, overridable for unusual display DPI or
	// trackpad sensitivity; all three default to the values in
	// edge.DefaultConfig.
	EdgeInsetPoints      float64 `mapstructure:"edge_inset_points"`
	EdgeCooldownMs       int     `mapstructure:"edge_cooldown_ms"`
	EdgeGraceAfterWarpMs int     `mapstructure:"edge_grace_after_warp_ms"`

	// Reconnect tuning for the Host-role dialer.
	ReconnectSettleSeconds int `mapstructure:"reconnect_settle_seconds"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

func Default() *Config {
	return &Config{
		Port:                   DefaultPort,
		Hotkey:                 "ctrl+alt+cmd",
		EdgeInsetPoints:        6.0,
		EdgeCooldownMs:         250,
		EdgeGraceAfterWarpMs:   500,
		ReconnectSettleSeconds: 3,
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// Load reads cfgFile (or the platform default config path if empty),
// layers environment variables prefixed EDGELINK_, and unmarshals into a
// Config seeded with Default. Fatal validation errors abort startup;
// warnings are logged and the offending field is clamped in place.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("edgelink")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("EDGELINK")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	result := cfg.ValidateTiered()
	for _, err := range result.Warnings {
		log.Warn("config validation", "error", err)
	}
	if result.HasFatals() {
		for _, err := range result.Fatals {
			log.Error("config validation fatal", "error", err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, nil
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "EdgeLink")
	case "darwin":
		return "/Library/Application Support/EdgeLink"
	default:
		return "/etc/edgelink"
	}
}
