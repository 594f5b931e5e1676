package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/privacy-blur/internal/model"
	"github.com/mj1618/privacy-blur/internal/overlay"
	"github.com/mj1618/privacy-blur/internal/script"
	"gopkg.in/yaml.v3"
)

const defaultWaitTimeout = 5 * time.Second

// actionResult is the YAML body returned by the mutating tools.
type actionResult struct {
	OK     bool          `yaml:"ok"              json:"ok"`
	Action string        `yaml:"action"          json:"action"`
	Error  string        `yaml:"error,omitempty" json:"error,omitempty"`
	Status *model.Status `yaml:"status,omitempty" json:"status,omitempty"`
}

// toText serializes v to YAML for an MCP response.
func toText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return string(b)
}

// action runs fn, optionally waits for a phase, and reports the status.
func (s *Server) action(request mcp.CallToolRequest, name string, fn func(), waitFor *overlay.Phase) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	fn()
	s.cache.Invalidate()

	result := actionResult{OK: true, Action: name}
	if waitFor != nil && boolParam(params, "wait", false) {
		timeout := defaultWaitTimeout
		if ms := intParam(params, "timeout_ms", 0); ms > 0 {
			timeout = time.Duration(ms) * time.Millisecond
		}
		if err := s.waitPhase(*waitFor, timeout); err != nil {
			result.OK = false
			result.Error = err.Error()
		}
	}
	st := s.overlay.Status()
	result.Status = &st
	if !result.OK {
		return mcp.NewToolResultError(toText(result)), nil
	}
	return mcp.NewToolResultText(toText(result)), nil
}

func (s *Server) waitPhase(want overlay.Phase, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		st := s.overlay.Status()
		if st.Phase == want.String() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s waiting for %s (phase is %s)", timeout, want, st.Phase)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (s *Server) handleConfigure(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := patchFromParams(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(toText(actionResult{Action: "configure", Error: err.Error()})), nil
	}
	if p.Empty() {
		return mcp.NewToolResultError(toText(actionResult{Action: "configure", Error: "no settings given"})), nil
	}
	return s.action(request, "configure", func() { s.overlay.Configure(p) }, nil)
}

func (s *Server) handleEnable(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.action(request, "enable", s.overlay.Enable, nil)
}

func (s *Server) handleDisable(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.action(request, "disable", s.overlay.Disable, nil)
}

func (s *Server) handleIsEnabled(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(toText(map[string]bool{"enabled": s.overlay.IsEnabled()})), nil
}

func (s *Server) handleShow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shown := overlay.Shown
	return s.action(request, "show", s.overlay.Show, &shown)
}

func (s *Server) handleHide(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hidden := overlay.Hidden
	return s.action(request, "hide", s.overlay.Hide, &hidden)
}

func (s *Server) handleTeardown(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.action(request, "teardown", s.overlay.Teardown, nil)
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(toText(s.overlay.Status())), nil
}

func (s *Server) handleSnapshot(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.snapshot == nil {
		return mcp.NewToolResultError("snapshot not supported by this backend"), nil
	}
	st := s.overlay.Status()
	data, err := s.cache.PNG(snapshotKey{Generation: st.Generation, Phase: st.Phase, Opacity: st.Opacity}, s.snapshot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(data),
				MIMEType: "image/png",
			},
		},
	}, nil
}

func (s *Server) handleRunScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	src := stringParam(params, "script", "")
	if src == "" {
		return mcp.NewToolResultError("script parameter is required"), nil
	}
	steps, err := script.Parse([]byte(src))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	runner := script.NewRunner(s.overlay)
	runner.StopOnError = boolParam(params, "stop_on_error", true)
	result := runner.Run(ctx, steps)
	s.cache.Invalidate()
	if !result.OK {
		return mcp.NewToolResultError(toText(result)), nil
	}
	return mcp.NewToolResultText(toText(result)), nil
}

// patchFromParams reads the configure tool arguments. Absent keys stay nil.
func patchFromParams(params map[string]interface{}) (overlay.Patch, error) {
	var o model.ConfigOverrides
	if v, ok := params["enabled"].(bool); ok {
		o.Enabled = &v
	}
	if _, ok := params["blur_radius"]; ok {
		o.BlurRadius = overlay.Ptr(intParam(params, "blur_radius", 0))
	}
	if _, ok := params["fade_duration_ms"]; ok {
		o.FadeDurationMS = overlay.Ptr(int64(intParam(params, "fade_duration_ms", 0)))
	}
	if _, ok := params["downsample_factor"]; ok {
		o.DownsampleFactor = overlay.Ptr(intParam(params, "downsample_factor", 1))
	}
	if v, ok := params["density"].(float64); ok {
		o.Density = &v
	}
	if v, ok := params["mask_color"].(string); ok {
		o.MaskColor = &v
	}
	return overlay.PatchFromOverrides(&o)
}

// Parameter extraction helpers for tool arguments

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func intParam(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}

func boolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}
