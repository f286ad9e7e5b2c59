// Package style builds libass subtitle style strings. A Descriptor captures
// the semantic options a client can set (font, colors with alpha, borders,
// shadow, placement) and renders them into the force_style syntax the
// subtitles filter consumes. Colors are packed into the ASS &HAABBGGRR form.
package style

import (
	"fmt"
	"math"
	"strings"
)

// colorNames maps the supported named colors to their RGB hex value.
var colorNames = map[string]string{
	"white":  "FFFFFF",
	"black":  "000000",
	"red":    "FF0000",
	"green":  "00FF00",
	"blue":   "0000FF",
	"yellow": "FFFF00",
}

// Color is one colored style element: a color token plus an opacity.
type Color struct {
	// Value is a named color or a #RRGGBB hex string.
	Value string
	// Alpha is the opacity in [0,1]; 1 is fully opaque.
	Alpha float64
}

// ASS returns the packed ASS color: alpha byte followed by BGR hex, most
// significant byte first. The ASS alpha convention is inverted (00 opaque,
// FF transparent). Unknown color names fall back to white; the function
// always produces a valid 8-digit value.
func (c Color) ASS() string {
	hexRGB, ok := colorNames[strings.ToLower(c.Value)]
	if !ok {
		if strings.HasPrefix(c.Value, "#") {
			hexRGB = c.Value[1:]
		} else {
			hexRGB = colorNames["white"]
		}
	}

	alpha := c.Alpha
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	alphaByte := int(math.Round(255 * (1 - alpha)))

	return fmt.Sprintf("%02X%s", alphaByte, rgbToBGR(hexRGB))
}

// rgbToBGR reorders a 6-digit RGB hex string into BGR byte order.
// Malformed input passes through unchanged.
func rgbToBGR(hexRGB string) string {
	if len(hexRGB) != 6 {
		return hexRGB
	}
	return hexRGB[4:6] + hexRGB[2:4] + hexRGB[0:2]
}

// Descriptor is the full subtitle style. Construct it, render it, discard it;
// it is never mutated after construction.
type Descriptor struct {
	FontName    string
	FontSize    int
	Primary     Color
	Outline     Color
	Background  Color
	BorderStyle int
	BorderSize  int
	ShadowSize  int
	MarginV     int
	Alignment   int
}

// Default returns the descriptor matching the service defaults: bold white
// Arial 24 with an opaque black outline and a half-transparent black box.
func Default() Descriptor {
	return Descriptor{
		FontName:    "Arial",
		FontSize:    24,
		Primary:     Color{Value: "white", Alpha: 1.0},
		Outline:     Color{Value: "black", Alpha: 1.0},
		Background:  Color{Value: "black", Alpha: 0.5},
		BorderStyle: 3,
		BorderSize:  1,
		ShadowSize:  2,
		MarginV:     20,
		Alignment:   2,
	}
}

// ForceStyle renders the descriptor as the comma-separated property list the
// subtitles filter accepts in its force_style option. The font name is quoted
// because it may contain spaces or characters the parser reserves.
func (d Descriptor) ForceStyle() string {
	props := []string{
		fmt.Sprintf("Fontname='%s'", d.FontName),
		fmt.Sprintf("FontSize=%d", d.FontSize),
		fmt.Sprintf("PrimaryColour=&H%s", d.Primary.ASS()),
		fmt.Sprintf("OutlineColour=&H%s", d.Outline.ASS()),
		fmt.Sprintf("BackColour=&H%s", d.Background.ASS()),
		fmt.Sprintf("BorderStyle=%d", d.BorderStyle),
		fmt.Sprintf("Outline=%d", d.BorderSize),
		fmt.Sprintf("Shadow=%d", d.ShadowSize),
		fmt.Sprintf("MarginV=%d", d.MarginV),
		fmt.Sprintf("Alignment=%d", d.Alignment),
		"Bold=1",
	}
	return strings.Join(props, ",")
}
