package model

// Step is one entry of an overlay script, as run by the `run` command and the
// run_script MCP tool.
type Step struct {
	Action    string           `yaml:"action"              json:"action"`
	Duration  string           `yaml:"duration,omitempty"  json:"duration,omitempty"` // sleep length, e.g. "250ms"
	Phase     string           `yaml:"phase,omitempty"     json:"phase,omitempty"`    // phase a wait step blocks for
	Timeout   string           `yaml:"timeout,omitempty"   json:"timeout,omitempty"`
	Configure *ConfigOverrides `yaml:"configure,omitempty" json:"configure,omitempty"`
}

// ConfigOverrides is a partial configuration. Nil fields are left unchanged.
type ConfigOverrides struct {
	Enabled          *bool    `yaml:"enabled,omitempty"           json:"enabled,omitempty"`
	BlurRadius       *int     `yaml:"blur_radius,omitempty"       json:"blur_radius,omitempty"`
	FadeDurationMS   *int64   `yaml:"fade_duration_ms,omitempty"  json:"fade_duration_ms,omitempty"`
	DownsampleFactor *int     `yaml:"downsample_factor,omitempty" json:"downsample_factor,omitempty"`
	Density          *float64 `yaml:"density,omitempty"           json:"density,omitempty"`
	MaskColor        *string  `yaml:"mask_color,omitempty"        json:"mask_color,omitempty"`
}

// Empty reports whether no field is set.
func (o *ConfigOverrides) Empty() bool {
	return o == nil || (o.Enabled == nil && o.BlurRadius == nil && o.FadeDurationMS == nil &&
		o.DownsampleFactor == nil && o.Density == nil && o.MaskColor == nil)
}

// StepResult is the outcome of a single script step.
type StepResult struct {
	Step    int     `yaml:"step"              json:"step"`
	Action  string  `yaml:"action"            json:"action"`
	OK      bool    `yaml:"ok"                json:"ok"`
	Error   string  `yaml:"error,omitempty"   json:"error,omitempty"`
	Phase   string  `yaml:"phase,omitempty"   json:"phase,omitempty"`
	Elapsed string  `yaml:"elapsed,omitempty" json:"elapsed,omitempty"`
	Status  *Status `yaml:"status,omitempty"  json:"status,omitempty"`
}

// RunResult is the full output of a script run.
type RunResult struct {
	OK          bool         `yaml:"ok"                 json:"ok"`
	Steps       int          `yaml:"steps"              json:"steps"`
	Completed   int          `yaml:"completed"          json:"completed"`
	Error       string       `yaml:"error,omitempty"    json:"error,omitempty"`
	Results     []StepResult `yaml:"results"            json:"results"`
	Transitions []Transition `yaml:"transitions"        json:"transitions"`
	Final       Status       `yaml:"final"              json:"final"`
	Snapshot    string       `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`
}
