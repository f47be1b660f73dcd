package style

import (
	"math"
	"testing"
)

func TestMix(t *testing.T) {
	tests := []struct {
		base string
		fg   string
		t    float64
		want string
	}{
		{"#000000", "#ffffff", 0, "#000000"},
		{"#000000", "#ffffff", 1, "#ffffff"},
		{"#000000", "#ffffff", 0.5, "#808080"},
		{"#ffffff", "#000000", 0.2, "#cccccc"},
		{"#ff0000", "#0000ff", 0.5, "#800080"},
	}

	for _, tt := range tests {
		if got := Mix(tt.base, tt.fg, tt.t); got != tt.want {
			t.Errorf("Mix(%q, %q, %v) = %q, want %q", tt.base, tt.fg, tt.t, got, tt.want)
		}
	}
}

func TestMixBadInputFallsBack(t *testing.T) {
	// Unparsable colors use light base / dark foreground defaults.
	if got := Mix("nope", "#000000", 0); got != "#f2f2f2" {
		t.Errorf("Mix() = %q, want #f2f2f2", got)
	}
	if got := Mix("#ffffff", "junk", 1); got != "#333333" {
		t.Errorf("Mix() = %q, want #333333", got)
	}
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		color string
		want  float64
	}{
		{"#000000", 0},
		{"#ffffff", 1},
		{"#ff0000", 0.2126},
		{"#00ff00", 0.7152},
		{"#0000ff", 0.0722},
		{"bogus", 0},
	}

	for _, tt := range tests {
		if got := Luminance(tt.color); math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("Luminance(%q) = %v, want %v", tt.color, got, tt.want)
		}
	}
}

func TestContrastRatio(t *testing.T) {
	if got := ContrastRatio("#000000", "#ffffff"); math.Abs(got-21) > 1e-9 {
		t.Errorf("ContrastRatio(black, white) = %v, want 21", got)
	}
	if got := ContrastRatio("#808080", "#808080"); math.Abs(got-1) > 1e-9 {
		t.Errorf("ContrastRatio(same, same) = %v, want 1", got)
	}
	// Symmetric in its arguments.
	a, b := ContrastRatio("#24292f", "#f6f8fa"), ContrastRatio("#f6f8fa", "#24292f")
	if a != b {
		t.Errorf("ContrastRatio not symmetric: %v vs %v", a, b)
	}
	if got := ContrastRatio("bad", "#ffffff"); got != 0 {
		t.Errorf("ContrastRatio(bad input) = %v, want 0", got)
	}
}

func TestShortHexForm(t *testing.T) {
	if got := Mix("#fff", "#000", 0); got != "#ffffff" {
		t.Errorf("Mix(#fff...) = %q, want #ffffff", got)
	}
}

func TestFromThemeColorHierarchy(t *testing.T) {
	s := FromTheme("#586e75", "#fdf6e3", "#073642")

	// Labels are a 60% mix toward the foreground, not the raw foreground.
	if s.EdgeText == s.NodeText {
		t.Errorf("EdgeText = NodeText = %q, want distinct", s.EdgeText)
	}
	// The fill stays close to the panel, not equal to it.
	if s.NodeFill == "#073642" {
		t.Error("NodeFill equals panel color, want a slight mix")
	}
	if s.NodeStroke == s.NodeText {
		t.Errorf("NodeStroke = NodeText = %q, want distinct", s.NodeStroke)
	}
}

func TestFromThemePicksReadableForeground(t *testing.T) {
	// On a dark panel the light page background beats the dark text color.
	dark := FromTheme("#24292f", "#ffffff", "#161b22")
	if dark.NodeText != "#ffffff" {
		t.Errorf("NodeText = %q, want #ffffff on dark panel", dark.NodeText)
	}

	// On a light panel the dark text color wins.
	light := FromTheme("#24292f", "#ffffff", "#f6f8fa")
	if light.NodeText != "#24292f" {
		t.Errorf("NodeText = %q, want #24292f on light panel", light.NodeText)
	}
}

func TestDefaultStyle(t *testing.T) {
	s := Default()
	if s.Background != "transparent" {
		t.Errorf("Background = %q, want transparent", s.Background)
	}
	if s.FontSize != DefaultFontSize {
		t.Errorf("FontSize = %v, want %v", s.FontSize, DefaultFontSize)
	}
}
