// Package server exposes an overlay controller as Model Context Protocol
// tools.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/privacy-blur/internal/script"
	"go.uber.org/zap"
)

// Overlay is the control surface the tools drive. *overlay.Controller
// implements it.
type Overlay interface {
	script.Overlay
	IsEnabled() bool
}

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	// MetricsPort serves prometheus /metrics when non-zero.
	MetricsPort int
	Metrics     http.Handler
	SnapshotTTL time.Duration
}

// Server wraps the MCP server with the overlay it controls.
type Server struct {
	overlay  Overlay
	snapshot SnapshotFunc
	cache    *SnapshotCache
	logger   *zap.Logger
	mcp      *mcpserver.MCPServer
}

// New creates an MCP server with all overlay tools registered. snapshot may be
// nil, in which case the snapshot tool reports an error.
func New(o Overlay, snapshot SnapshotFunc, name, version string, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		overlay:  o,
		snapshot: snapshot,
		cache:    NewSnapshotCache(cfg.SnapshotTTL),
		logger:   logger,
		mcp:      mcpserver.NewMCPServer(name, version),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Serve starts the metrics endpoint, if configured, and then the MCP server
// with the configured transport.
func (s *Server) Serve(cfg Config) error {
	if cfg.MetricsPort > 0 && cfg.Metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", cfg.Metrics)
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				s.logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		s.logger.Info("serving metrics", zap.String("addr", addr))
	}

	switch cfg.Transport {
	case "", "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("configure",
			mcp.WithDescription("Update overlay settings. Only the fields given change; the rest keep their current values. Takes effect on the next show or hide."),
			mcp.WithBoolean("enabled", mcp.Description("Whether the overlay may be shown")),
			mcp.WithNumber("blur_radius", mcp.Description("Blur radius in device-independent units (0 = solid mask)")),
			mcp.WithNumber("fade_duration_ms", mcp.Description("Fade in/out duration in milliseconds")),
			mcp.WithNumber("downsample_factor", mcp.Description("Shrink factor applied to the capture before blurring")),
			mcp.WithNumber("density", mcp.Description("Pixels per device-independent unit")),
			mcp.WithString("mask_color", mcp.Description("Solid mask color: #rrggbb, #rrggbbaa, white, black, gray")),
		),
		s.handleConfigure,
	)

	s.mcp.AddTool(
		mcp.NewTool("enable",
			mcp.WithDescription("Allow the overlay to be shown"),
		),
		s.handleEnable,
	)

	s.mcp.AddTool(
		mcp.NewTool("disable",
			mcp.WithDescription("Disallow the overlay and remove it immediately if visible"),
		),
		s.handleDisable,
	)

	s.mcp.AddTool(
		mcp.NewTool("is_enabled",
			mcp.WithDescription("Report whether the overlay is enabled"),
		),
		s.handleIsEnabled,
	)

	s.mcp.AddTool(
		mcp.NewTool("show",
			mcp.WithDescription("Capture the current frame and fade the privacy overlay in"),
			mcp.WithBoolean("wait", mcp.Description("Wait until the fade-in completes")),
			mcp.WithNumber("timeout_ms", mcp.Description("Max wait in milliseconds (default: 5000)")),
		),
		s.handleShow,
	)

	s.mcp.AddTool(
		mcp.NewTool("hide",
			mcp.WithDescription("Fade the privacy overlay out and remove it"),
			mcp.WithBoolean("wait", mcp.Description("Wait until the fade-out completes")),
			mcp.WithNumber("timeout_ms", mcp.Description("Max wait in milliseconds (default: 5000)")),
		),
		s.handleHide,
	)

	s.mcp.AddTool(
		mcp.NewTool("teardown",
			mcp.WithDescription("Remove the overlay immediately without animation"),
		),
		s.handleTeardown,
	)

	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Report the overlay phase, opacity, generation and configuration"),
		),
		s.handleStatus,
	)

	s.mcp.AddTool(
		mcp.NewTool("snapshot",
			mcp.WithDescription("Render the host view with the overlay on top as a PNG image"),
		),
		s.handleSnapshot,
	)

	s.mcp.AddTool(
		mcp.NewTool("run_script",
			mcp.WithDescription("Run a YAML list of overlay steps: show, hide, enable, disable, teardown, configure, sleep, wait, status"),
			mcp.WithString("script", mcp.Required(), mcp.Description("YAML list, e.g. \"- show\\n- wait: shown\\n- hide\"")),
			mcp.WithBoolean("stop_on_error", mcp.Description("Stop at the first failing step (default: true)")),
		),
		s.handleRunScript,
	)
}
