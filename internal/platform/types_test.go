package platform

import (
	"image/color"
	"testing"
)

func TestParseColor_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  color.RGBA
	}{
		{"white", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{"Black", color.RGBA{A: 255}},
		{"#ff0000", color.RGBA{R: 255, A: 255}},
		{"00ff00", color.RGBA{G: 255, A: 255}},
		{"#0000ff80", color.RGBA{B: 255, A: 128}},
		{" #102030 ", color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.input)
		if err != nil {
			t.Errorf("ParseColor(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseColor_Invalid(t *testing.T) {
	tests := []string{
		"",
		"#fff",
		"#gggggg",
		"#1234567",
		"purple",
	}
	for _, s := range tests {
		_, err := ParseColor(s)
		if err == nil {
			t.Errorf("ParseColor(%q) should fail", s)
		}
	}
}

func TestFormatColor_RoundTrip(t *testing.T) {
	for _, s := range []string{"#ffffff", "#102030", "#0000ff80"} {
		c, err := ParseColor(s)
		if err != nil {
			t.Fatal(err)
		}
		if got := FormatColor(c); got != s {
			t.Errorf("FormatColor(ParseColor(%q)) = %q", s, got)
		}
	}
}
