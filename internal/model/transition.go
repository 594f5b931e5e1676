package model

// Transition records one state change of an overlay compositor.
type Transition struct {
	Seq        uint64 `yaml:"seq"              json:"seq"`
	Event      string `yaml:"event"            json:"event"`
	From       string `yaml:"from"             json:"from"`
	To         string `yaml:"to"               json:"to"`
	Generation uint64 `yaml:"generation"       json:"generation"`
	Reason     string `yaml:"reason,omitempty" json:"reason,omitempty"`
}
