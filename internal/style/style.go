package style

import (
	"fmt"
	"image/color"
	"log/slog"

	"sectorwatch/internal/models"
	"sectorwatch/internal/observability"
)

const fillOpacity = 0.2

// Key is every attribute that changes the shape of a Style. Label text is
// deliberately not part of it.
type Key struct {
	Colour        string
	ThemeColour   string // overrides Colour when set
	Booked        bool
	Dashed        bool
	Hovered       bool
	HasLabel      bool
	HasSecondLine bool
}

// Fill is a resolved polygon fill, shared by every style using the same colour
type Fill struct {
	Colour string // the literal colour the fill was requested with
	RGBA   color.RGBA
	CSS    string
}

type Stroke struct {
	CSS   string
	Width float64
	Dash  []float64
}

type Text struct {
	Label      string
	SecondLine string
	Font       string
	CSS        string
}

// Style is a memoized style description. Only its text is mutated after
// construction.
type Style struct {
	Key    Key
	Fill   *Fill
	Stroke Stroke
	Text   *Text // nil when the key has no label
}

// UpdateLabel replaces the text content in place
func (s *Style) UpdateLabel(label, secondLine string) {
	if s.Text == nil {
		return
	}
	s.Text.Label = label
	if s.Key.HasSecondLine {
		s.Text.SecondLine = secondLine
	} else {
		s.Text.SecondLine = ""
	}
}

// Memoizer builds styles once per Key and reuses them, rewriting only the
// label text on later requests. Not safe for concurrent use.
type Memoizer struct {
	palette Palette
	styles  map[Key]*Style
	fills   map[string]*Fill
	metrics *observability.Collector
}

// NewMemoizer creates an empty memoizer. metrics may be nil.
func NewMemoizer(palette Palette, metrics *observability.Collector) *Memoizer {
	return &Memoizer{
		palette: palette,
		styles:  make(map[Key]*Style),
		fills:   make(map[string]*Fill),
		metrics: metrics,
	}
}

// StyleFor returns the style for key with its text set to label/secondLine
func (m *Memoizer) StyleFor(key Key, label, secondLine string) *Style {
	if s, ok := m.styles[key]; ok {
		m.metrics.ObserveStyleLookup(true)
		s.UpdateLabel(label, secondLine)
		return s
	}
	m.metrics.ObserveStyleLookup(false)

	colour := key.Colour
	if key.ThemeColour != "" {
		colour = key.ThemeColour
	}

	s := &Style{
		Key:    key,
		Fill:   m.fill(colour),
		Stroke: m.stroke(key, colour),
	}
	if key.HasLabel {
		s.Text = &Text{
			Font: font(key),
			CSS:  m.css("label"),
		}
		s.UpdateLabel(label, secondLine)
	}
	m.styles[key] = s
	return s
}

// Len returns the number of memoized styles
func (m *Memoizer) Len() int {
	return len(m.styles)
}

func (m *Memoizer) fill(colour string) *Fill {
	if f, ok := m.fills[colour]; ok {
		return f
	}
	c, ok := m.palette.Resolve(colour)
	if !ok {
		slog.Debug("Unresolvable colour, using fallback", "colour", colour)
		_, c = m.palette.fallback()
	}
	f := &Fill{
		Colour: colour,
		RGBA:   c,
		CSS:    fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c.R, c.G, c.B, fillOpacity),
	}
	m.fills[colour] = f
	return f
}

func (m *Memoizer) stroke(key Key, colour string) Stroke {
	s := Stroke{Width: 1, CSS: m.css(colour)}
	if key.Booked {
		s.CSS = m.css("booked")
	}
	if key.Hovered {
		s.Width = 2
	}
	if key.Dashed {
		s.Dash = []float64{4, 4}
	}
	return s
}

func (m *Memoizer) css(colour string) string {
	c, ok := m.palette.Resolve(colour)
	if !ok {
		_, c = m.palette.fallback()
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c.R, c.G, c.B, float64(c.A)/255)
}

func font(key Key) string {
	if key.Hovered {
		return "bold 12px sans-serif"
	}
	return "12px sans-serif"
}

// KeyForSector derives the style key and label text of a sector feature
func KeyForSector(s *models.Sector, hovered bool) (Key, string, string) {
	key := Key{
		Booked:  s.Booked,
		Hovered: hovered,
	}
	label, second := s.PrimaryICAO, s.SecondaryICAO

	switch s.Kind {
	case models.KindFir:
		key.Colour = "fir"
	case models.KindUir:
		key.Colour = "uir"
		key.Dashed = true
	case models.KindEmpty:
		key.Colour = "empty"
		key.Dashed = true
	case models.KindVatglasses:
		key.Colour = "vatglasses"
		if s.Vatglasses != nil {
			key.ThemeColour = s.Vatglasses.Colour
			label = s.Vatglasses.PositionID
		}
	}
	if s.Duplicated {
		key.ThemeColour = "duplicated"
	}
	if s.Kind != models.KindEmpty && len(s.Controllers) > 0 && second == "" {
		second = s.Controllers[0].Frequency
	}

	key.HasLabel = label != ""
	key.HasSecondLine = second != ""
	return key, label, second
}
