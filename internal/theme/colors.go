package theme

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// parseColorful accepts #RRGGBB, #RGB and rgb(r,g,b)
func parseColorful(s string) (colorful.Color, bool) {
	s = strings.TrimSpace(s)

	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		// colorful.Hex scans loosely and would read #12345 as 12, 34, 5
		if len(hex) != 6 {
			return colorful.Color{}, false
		}
		c, err := colorful.Hex("#" + hex)
		return c, err == nil
	}

	inner, ok := strings.CutPrefix(s, "rgb(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return colorful.Color{}, false
	}
	parts := strings.Split(strings.TrimSuffix(inner, ")"), ",")
	if len(parts) != 3 {
		return colorful.Color{}, false
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return colorful.Color{}, false
		}
		rgb[i] = uint8(v)
	}
	return colorful.Color{R: float64(rgb[0]) / 255, G: float64(rgb[1]) / 255, B: float64(rgb[2]) / 255}, true
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// HexToColor converts a hex color string (#RRGGBB or #RGB) to tcell.Color
func HexToColor(hexColor string) tcell.Color {
	if !strings.HasPrefix(hexColor, "#") {
		hexColor = "#" + hexColor
	}
	return ParseColorString(hexColor)
}

// ParseColorString handles #RRGGBB, #RGB and rgb(r,g,b). Anything else is
// the terminal default.
func ParseColorString(s string) tcell.Color {
	c, ok := parseColorful(s)
	if !ok {
		return tcell.ColorDefault
	}
	return toTcell(c)
}

// Blend mixes fg into bg by t (0 keeps bg) in Lab space. It is used for
// the tinted backgrounds of added and removed lines.
func Blend(bg, fg string, t float64) tcell.Color {
	b, ok1 := parseColorful(bg)
	f, ok2 := parseColorful(fg)
	if !ok1 || !ok2 {
		return tcell.ColorDefault
	}
	return toTcell(b.BlendLab(f, t))
}
