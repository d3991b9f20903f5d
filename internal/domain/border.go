package domain

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

const (
	DefaultBorderWidth  = 50
	DefaultAspectRatio  = "4:5"
	DefaultOutputWidth  = 1080
	DefaultJPEGQuality  = 95
	DefaultOutputSuffix = "_BORDER"
)

var (
	ErrMalformedAspectRatio = errors.New("malformed aspect ratio")
	ErrMalformedColor       = errors.New("malformed border color")
)

// DefaultBorderColor is opaque white.
var DefaultBorderColor = Color{R: 255, G: 255, B: 255}

type Color struct {
	R, G, B uint8
}

func (c Color) ToRGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor accepts "R,G,B" with components in [0,255] or "#rrggbb".
func ParseColor(in string) (Color, error) {
	in = strings.TrimSpace(in)
	if strings.HasPrefix(in, "#") {
		hex := strings.TrimPrefix(in, "#")
		if len(hex) != 6 {
			return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, in)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, in)
		}
		return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	}

	parts := strings.Split(in, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, in)
	}
	var rgb [3]uint8
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > 255 {
			return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, in)
		}
		rgb[i] = uint8(v)
	}
	return Color{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}

// AspectRatio is the letterbox target as given in "W:H" form.
type AspectRatio struct {
	Width  int
	Height int
}

// ParseAspectRatio parses "W:H" where W and H are positive integers.
func ParseAspectRatio(in string) (AspectRatio, error) {
	parts := strings.Split(strings.TrimSpace(in), ":")
	if len(parts) != 2 {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrMalformedAspectRatio, in)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrMalformedAspectRatio, in)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("%w: %q", ErrMalformedAspectRatio, in)
	}
	if w <= 0 || h <= 0 {
		return AspectRatio{}, fmt.Errorf("%w: %q: sides must be positive", ErrMalformedAspectRatio, in)
	}

	return AspectRatio{Width: w, Height: h}, nil
}

// Scale returns height/width.
func (a AspectRatio) Scale() float64 {
	return float64(a.Height) / float64(a.Width)
}

func (a AspectRatio) IsSquare() bool {
	return a.Scale() == 1.0
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.Width, a.Height)
}

// BorderSpec carries everything the transform needs for one run.
type BorderSpec struct {
	Color       Color
	Width       int
	Aspect      AspectRatio
	OutputWidth int
	Quality     int
}

func DefaultBorderSpec() BorderSpec {
	return BorderSpec{
		Color:       DefaultBorderColor,
		Width:       DefaultBorderWidth,
		Aspect:      AspectRatio{Width: 4, Height: 5},
		OutputWidth: DefaultOutputWidth,
		Quality:     DefaultJPEGQuality,
	}
}

func (s BorderSpec) Validate() error {
	if s.Width < 0 {
		return fmt.Errorf("border width must be >= 0, got %d", s.Width)
	}
	if s.Aspect.Width <= 0 || s.Aspect.Height <= 0 {
		return fmt.Errorf("%w: %s", ErrMalformedAspectRatio, s.Aspect)
	}
	if s.OutputWidth <= 0 {
		return fmt.Errorf("output width must be > 0, got %d", s.OutputWidth)
	}
	if s.Quality < 1 || s.Quality > 100 {
		return fmt.Errorf("jpeg quality must be within 1..100, got %d", s.Quality)
	}
	return nil
}
