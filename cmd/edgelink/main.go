package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgelink/kvmshare/internal/app"
	"github.com/edgelink/kvmshare/internal/capture"
	"github.com/edgelink/kvmshare/internal/config"
	"github.com/edgelink/kvmshare/internal/display"
	"github.com/edgelink/kvmshare/internal/edge"
	"github.com/edgelink/kvmshare/internal/logging"
)

var (
	version = "0.1.0"
	cfgFile string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "edgelink",
	Short: "EdgeLink shares one keyboard and mouse between two machines over a LAN",
}

var (
	hostClientIP string
	hostPort     int
	hostHotkey   string
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the Host role: own the physical keyboard/mouse and dial the Client",
	Run: func(cmd *cobra.Command, args []string) {
		runHost()
	},
}

var (
	clientPort    int
	clientVerbose bool
	clientWidth   int
	clientHeight  int
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Run the Client role: accept a connection and inject remote input",
	Run: func(cmd *cobra.Command, args []string) {
		runClient()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("edgelink v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/edgelink/edgelink.yaml)")

	hostCmd.Flags().StringVar(&hostClientIP, "client-ip", "", "address of the Client to dial (required)")
	hostCmd.Flags().IntVar(&hostPort, "port", config.DefaultPort, "Client port")
	hostCmd.Flags().StringVar(&hostHotkey, "hotkey", "", "hotkey combo, e.g. ctrl+alt+cmd")

	clientCmd.Flags().IntVar(&clientPort, "port", config.DefaultPort, "port to listen on")
	clientCmd.Flags().BoolVar(&clientVerbose, "verbose", false, "enable debug logging")
	clientCmd.Flags().IntVar(&clientWidth, "width", 1920, "local display width in pixels, announced to the Host")
	clientCmd.Flags().IntVar(&clientHeight, "height", 1080, "local display height in pixels, announced to the Host")

	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging(cfg *config.Config) {
	var output io.Writer = os.Stdout
	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, 0, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v (logging to stdout)\n", cfg.LogFile, err)
		} else {
			output = logging.TeeWriter(os.Stdout, rw)
		}
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, output)
	log = logging.L("main")
}

func runHost() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = config.Default()
	}
	cfg.Role = config.RoleHost
	if hostClientIP != "" {
		cfg.ClientIP = hostClientIP
	}
	if hostPort != config.DefaultPort {
		cfg.Port = hostPort
	}
	if hostHotkey != "" {
		cfg.Hotkey = hostHotkey
	}

	if result := cfg.ValidateTiered(); result.HasFatals() {
		for _, e := range result.Fatals {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	initLogging(cfg)

	hotkey, err := capture.ParseHotkey(cfg.Hotkey)
	if err != nil {
		log.Error("invalid hotkey", "hotkey", cfg.Hotkey, "error", err)
		os.Exit(1)
	}

	host := app.NewHost(app.HostConfig{
		ClientAddr: fmt.Sprintf("%s:%d", cfg.ClientIP, cfg.Port),
		Hotkey:     hotkey,
		EdgeConfig: edge.Config{
			EdgeInset:      cfg.EdgeInsetPoints,
			Cooldown:       msDuration(cfg.EdgeCooldownMs),
			GraceAfterWarp: msDuration(cfg.EdgeGraceAfterWarpMs),
		},
		ReconnectSettle: time.Duration(cfg.ReconnectSettleSeconds) * time.Second,
	})

	go waitForSignal(host.Stop)

	log.Info("host starting", "version", version, "client", cfg.ClientIP, "hotkey", cfg.Hotkey)
	if err := host.Run(); err != nil {
		log.Error("host exited", "error", err)
		os.Exit(1)
	}
	log.Info("host stopped")
}

func runClient() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = config.Default()
	}
	cfg.Role = config.RoleClient
	if clientPort != config.DefaultPort {
		cfg.Port = clientPort
	}
	if clientVerbose {
		cfg.LogLevel = "debug"
	}

	if result := cfg.ValidateTiered(); result.HasFatals() {
		for _, e := range result.Fatals {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	initLogging(cfg)

	client, err := app.NewClient(app.ClientConfig{
		ListenAddr: fmt.Sprintf(":%d", cfg.Port),
		EdgeConfig: edge.Config{
			EdgeInset:      cfg.EdgeInsetPoints,
			Cooldown:       msDuration(cfg.EdgeCooldownMs),
			GraceAfterWarp: msDuration(cfg.EdgeGraceAfterWarpMs),
		},
		Frame: display.Frame{Width: float64(clientWidth), Height: float64(clientHeight)},
	})
	if err != nil {
		log.Error("failed to start client", "error", err)
		os.Exit(1)
	}

	go waitForSignal(client.Stop)

	log.Info("client listening", "version", version, "addr", client.Addr())
	if err := client.Run(); err != nil {
		log.Error("client exited", "error", err)
		os.Exit(1)
	}
	log.Info("client stopped")
}

func waitForSignal(stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	stop()
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
