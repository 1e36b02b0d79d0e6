package style

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultColour is used whenever a colour cannot be resolved
const DefaultColour = "#8a94a6"

// Palette maps theme colour names to hex values
type Palette struct {
	Default string            `yaml:"default"`
	Colours map[string]string `yaml:"colours"`
}

// DefaultPalette is used when no palette file is configured
func DefaultPalette() Palette {
	return Palette{
		Default: DefaultColour,
		Colours: map[string]string{
			"fir":        "#4f9dde",
			"uir":        "#7d5ba6",
			"empty":      "#3b4252",
			"booked":     "#e0a526",
			"duplicated": "#bf616a",
			"vatglasses": "#4fb286",
			"label":      "#eceff4",
		},
	}
}

// LoadPalette reads a YAML palette file
func LoadPalette(path string) (Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, fmt.Errorf("failed to read palette %s: %w", path, err)
	}
	var p Palette
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Palette{}, fmt.Errorf("failed to unmarshal palette %s: %w", path, err)
	}
	if p.Default == "" {
		p.Default = DefaultColour
	}
	return p, nil
}

// Resolve turns a colour name or literal hex string into RGBA
func (p Palette) Resolve(name string) (color.RGBA, bool) {
	if hex, ok := p.Colours[name]; ok {
		name = hex
	}
	return parseHex(name)
}

// fallback returns the palette default, or DefaultColour if that is broken too
func (p Palette) fallback() (string, color.RGBA) {
	if c, ok := parseHex(p.Default); ok {
		return p.Default, c
	}
	c, _ := parseHex(DefaultColour)
	return DefaultColour, c
}

// parseHex accepts #rgb, #rrggbb and #rrggbbaa
func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}
