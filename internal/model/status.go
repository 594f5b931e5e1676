package model

// Status is a point-in-time view of one overlay compositor.
type Status struct {
	ID           string      `yaml:"id"                     json:"id"`
	Phase        string      `yaml:"phase"                  json:"phase"`
	Target       float64     `yaml:"target"                 json:"target"`
	Opacity      float64     `yaml:"opacity"                json:"opacity"`
	Generation   uint64      `yaml:"generation"             json:"generation"`
	Attached     bool        `yaml:"attached"               json:"attached"`
	BlurPending  bool        `yaml:"blur_pending,omitempty" json:"blur_pending,omitempty"`
	Presentation string      `yaml:"presentation,omitempty" json:"presentation,omitempty"` // "blurred" or "solid"
	Strategy     string      `yaml:"strategy"               json:"strategy"`
	Config       ConfigView  `yaml:"config"                 json:"config"`
	Transitions  int         `yaml:"transitions"            json:"transitions"`
	Last         *Transition `yaml:"last,omitempty"         json:"last,omitempty"`
}

// ConfigView is the serialisable form of the overlay configuration.
type ConfigView struct {
	Enabled          bool    `yaml:"enabled"           json:"enabled"`
	BlurRadius       int     `yaml:"blur_radius"       json:"blur_radius"`
	FadeDurationMS   int64   `yaml:"fade_duration_ms"  json:"fade_duration_ms"`
	DownsampleFactor int     `yaml:"downsample_factor" json:"downsample_factor"`
	Density          float64 `yaml:"density"           json:"density"`
	MaskColor        string  `yaml:"mask_color"        json:"mask_color"`
}
