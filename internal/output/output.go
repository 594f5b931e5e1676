package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mj1618/privacy-blur/internal/model"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ParseFormat validates a --format value. Empty selects YAML.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatYAML:
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use yaml or json)", s)
	}
}

// BlurResult is the output of the `blur` command for one image.
type BlurResult struct {
	Input     string `yaml:"input"                json:"input"`
	Output    string `yaml:"output"               json:"output"`
	Width     int    `yaml:"width"                json:"width"`
	Height    int    `yaml:"height"               json:"height"`
	Radius    int    `yaml:"radius"               json:"radius"`
	Strategy  string `yaml:"strategy"             json:"strategy"`
	ElapsedMS int64  `yaml:"elapsed_ms"           json:"elapsed_ms"`
	Solid     bool   `yaml:"solid,omitempty"      json:"solid,omitempty"`
}

// BlurBatchResult wraps the per-image results of one `blur` invocation.
type BlurBatchResult struct {
	OK      bool         `yaml:"ok"      json:"ok"`
	Results []BlurResult `yaml:"results" json:"results"`
}

// StatusResult is the output of the `status` command.
type StatusResult struct {
	Source   string           `yaml:"source,omitempty" json:"source,omitempty"`
	Strategy string           `yaml:"strategy"         json:"strategy"`
	LogLevel string           `yaml:"log_level"        json:"log_level"`
	Config   model.ConfigView `yaml:"config"           json:"config"`
	Version  string           `yaml:"version"          json:"version"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	return Fprint(os.Stdout, v)
}

// Fprint serializes v to w in the current output format.
func Fprint(w io.Writer, v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, v, PrettyOutput)
	case FormatYAML:
		return WriteYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	return WriteJSON(os.Stdout, v, false)
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	return WriteYAML(os.Stdout, v)
}

// WriteJSON serializes v to w as JSON, indented when pretty is set.
func WriteJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// WriteYAML serializes v to w as YAML.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
