package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Color is an opaque background color. It remembers the spelling it was
// parsed from so logs show what the user wrote.
type Color struct {
	R, G, B uint8
	raw     string
}

// White is the default background.
var White = Color{R: 0xff, G: 0xff, B: 0xff, raw: "#FFFFFF"}

// ParseColor accepts a color name ("white", "lightgray"), a hex string
// ("#FFF", "#FFFFFF", "ffffff") or a decimal triple ("255,255,255").
func ParseColor(s string) (Color, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Color{}, fmt.Errorf("empty color")
	}
	lower := strings.ToLower(raw)

	if named, ok := colornames.Map[lower]; ok {
		return Color{R: named.R, G: named.G, B: named.B, raw: raw}, nil
	}

	if strings.Contains(lower, ",") {
		return parseTriple(raw)
	}

	hex := lower
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return Color{}, fmt.Errorf("invalid color %q (use a name, #RGB, #RRGGBB or r,g,b)", raw)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", raw, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, raw: raw}, nil
}

func parseTriple(raw string) (Color, error) {
	s := strings.TrimSuffix(strings.TrimPrefix(strings.ToLower(raw), "rgb("), ")")
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("invalid color %q: want three components", raw)
	}
	var rgb [3]uint8
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 255 {
			return Color{}, fmt.Errorf("invalid color %q: component %q not in 0-255", raw, strings.TrimSpace(part))
		}
		rgb[i] = uint8(n)
	}
	return Color{R: rgb[0], G: rgb[1], B: rgb[2], raw: raw}, nil
}

// NRGBA returns the color with full alpha.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Hex returns the canonical #RRGGBB form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) String() string {
	if c.raw != "" {
		return c.raw
	}
	return c.Hex()
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
