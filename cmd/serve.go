package cmd

import (
	"fmt"
	"image"
	"time"

	"github.com/mj1618/privacy-blur/internal/metrics"
	"github.com/mj1618/privacy-blur/internal/overlay"
	"github.com/mj1618/privacy-blur/internal/platform"
	"github.com/mj1618/privacy-blur/internal/platform/headless"
	"github.com/mj1618/privacy-blur/internal/server"
	"github.com/mj1618/privacy-blur/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server that controls a privacy overlay",
	Long: `Start a Model Context Protocol (MCP) server that exposes the overlay as
tools: configure, enable, disable, is_enabled, show, hide, teardown, status,
snapshot and run_script. The overlay covers a headless host showing --image
(or a generated test pattern).

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  privacy-blur serve
  privacy-blur serve --transport streamable-http --port 8080 --metrics-port 9090
  privacy-blur serve --image screen.png --radius 30`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addOverlayFlags(serveCmd)
	addSourceFlags(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("metrics-port", 0, "Serve prometheus /metrics on this port (0 to disable)")
	serveCmd.Flags().Int("snapshot-ttl", 250, "Snapshot cache TTL in milliseconds (0 to disable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	metricsPort, _ := cmd.Flags().GetInt("metrics-port")
	snapshotTTLMs, _ := cmd.Flags().GetInt("snapshot-ttl")

	cfg, st, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	src, err := loadSource(cmd)
	if err != nil {
		return err
	}
	provider, err := headless.NewProvider(platform.Options{Source: src})
	if err != nil {
		return err
	}

	m := metrics.New()
	ctrl, err := overlay.NewController(provider,
		overlay.WithConfig(cfg),
		overlay.WithStrategy(st),
		overlay.WithLogger(logger),
		overlay.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	defer ctrl.Close()

	srvCfg := server.Config{
		Transport:   transport,
		Port:        port,
		MetricsPort: metricsPort,
		Metrics:     m.Handler(),
		SnapshotTTL: time.Duration(snapshotTTLMs) * time.Millisecond,
	}
	snapshot := func() (image.Image, error) { return headless.Snapshot(provider) }
	srv := server.New(ctrl, snapshot, "privacy-blur", version.Version, srvCfg, logger)

	logger.Info("starting MCP server",
		zap.String("transport", transport),
		zap.String("overlay", ctrl.ID()),
		zap.String("strategy", st.Name()))
	return srv.Serve(srvCfg)
}
