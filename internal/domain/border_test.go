package domain

import (
	"errors"
	"math"
	"testing"
)

func TestParseAspectRatio(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"4:5", 1.25},
		{"1:1", 1},
		{"16:9", 9.0 / 16.0},
		{"3:2", 2.0 / 3.0},
		{" 9:16 ", 16.0 / 9.0},
	}
	for _, tc := range cases {
		ar, err := ParseAspectRatio(tc.in)
		if err != nil {
			t.Fatalf("ParseAspectRatio(%q) returned error: %v", tc.in, err)
		}
		if math.Abs(ar.Scale()-tc.want) > 1e-12 {
			t.Fatalf("ParseAspectRatio(%q).Scale() = %v, want %v", tc.in, ar.Scale(), tc.want)
		}
	}
}

func TestParseAspectRatioRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "4", "4:5:6", "a:5", "4:b", "0:5", "4:-1", "4/5"} {
		_, err := ParseAspectRatio(in)
		if !errors.Is(err, ErrMalformedAspectRatio) {
			t.Fatalf("ParseAspectRatio(%q): expected ErrMalformedAspectRatio, got %v", in, err)
		}
	}
}

func TestAspectRatioIsSquare(t *testing.T) {
	for in, want := range map[string]bool{"1:1": true, "7:7": true, "4:5": false} {
		ar, err := ParseAspectRatio(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if ar.IsSquare() != want {
			t.Fatalf("%q IsSquare = %v, want %v", in, ar.IsSquare(), want)
		}
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("255, 128,0")
	if err != nil {
		t.Fatalf("parse rgb triple: %v", err)
	}
	if c != (Color{R: 255, G: 128, B: 0}) {
		t.Fatalf("unexpected color %+v", c)
	}

	c, err = ParseColor("#1a2B3c")
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if c != (Color{R: 0x1a, G: 0x2b, B: 0x3c}) {
		t.Fatalf("unexpected color %+v", c)
	}
	if c.String() != "#1a2b3c" {
		t.Fatalf("unexpected String() %s", c.String())
	}

	for _, in := range []string{"", "256,0,0", "1,2", "#fff", "#gggggg", "a,b,c"} {
		if _, err := ParseColor(in); !errors.Is(err, ErrMalformedColor) {
			t.Fatalf("ParseColor(%q): expected ErrMalformedColor, got %v", in, err)
		}
	}
}

func TestBorderSpecValidate(t *testing.T) {
	if err := DefaultBorderSpec().Validate(); err != nil {
		t.Fatalf("default spec should be valid: %v", err)
	}

	spec := DefaultBorderSpec()
	spec.Quality = 0
	if err := spec.Validate(); err == nil {
		t.Fatal("expected quality validation error")
	}

	spec = DefaultBorderSpec()
	spec.Width = -1
	if err := spec.Validate(); err == nil {
		t.Fatal("expected border width validation error")
	}

	spec = DefaultBorderSpec()
	spec.OutputWidth = 0
	if err := spec.Validate(); err == nil {
		t.Fatal("expected output width validation error")
	}
}
