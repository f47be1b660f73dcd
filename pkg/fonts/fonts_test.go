package fonts

import "testing"

func TestSansWidthsLoaded(t *testing.T) {
	var m Sans
	if got := m.TextWidth("", 13); got != 0 {
		t.Errorf("TextWidth(empty) = %v, want 0", got)
	}
	// 'i' is one of the narrowest glyphs, 'W' the widest.
	if narrow, wide := m.TextWidth("i", 13), m.TextWidth("W", 13); narrow >= wide {
		t.Errorf("TextWidth(i)=%v not narrower than TextWidth(W)=%v", narrow, wide)
	}
}

func TestSansScalesLinearly(t *testing.T) {
	var m Sans
	small := m.TextWidth("hello", 10)
	large := m.TextWidth("hello", 20)
	if large != small*2 {
		t.Errorf("widths do not scale: %v vs %v", small, large)
	}
}

func TestSansNonASCIIFallback(t *testing.T) {
	var m Sans
	if got := m.TextWidth("é", 13); got <= 0 {
		t.Errorf("TextWidth(é) = %v, want positive fallback", got)
	}
}
