package style

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sectorwatch/internal/models"
	"sectorwatch/internal/observability"
)

func TestStyleFor_MutatesCachedLabel(t *testing.T) {
	m := NewMemoizer(DefaultPalette(), nil)
	key := Key{Colour: "fir", HasLabel: true, HasSecondLine: true}

	first := m.StyleFor(key, "EGTT", "127.100")
	require.NotNil(t, first.Text)
	assert.Equal(t, "EGTT", first.Text.Label)

	second := m.StyleFor(key, "EGPX", "135.525")
	assert.Same(t, first, second)
	assert.Equal(t, "EGPX", first.Text.Label)
	assert.Equal(t, "135.525", first.Text.SecondLine)
	assert.Equal(t, 1, m.Len())
}

func TestStyleFor_NewKeyBuildsFresh(t *testing.T) {
	m := NewMemoizer(DefaultPalette(), nil)

	plain := m.StyleFor(Key{Colour: "fir", HasLabel: true}, "EGTT", "")
	hovered := m.StyleFor(Key{Colour: "fir", HasLabel: true, Hovered: true}, "EGTT", "")

	assert.NotSame(t, plain, hovered)
	assert.Equal(t, 2.0, hovered.Stroke.Width)
	assert.Equal(t, 1.0, plain.Stroke.Width)
	assert.Same(t, plain.Fill, hovered.Fill, "fills are shared per colour")
	assert.Equal(t, 2, m.Len())
}

func TestStyleFor_NoLabel(t *testing.T) {
	m := NewMemoizer(DefaultPalette(), nil)

	s := m.StyleFor(Key{Colour: "empty", Dashed: true}, "ignored", "")
	assert.Nil(t, s.Text)
	assert.Equal(t, []float64{4, 4}, s.Stroke.Dash)
}

func TestStyleFor_SecondLineOnlyWhenKeyed(t *testing.T) {
	m := NewMemoizer(DefaultPalette(), nil)

	s := m.StyleFor(Key{Colour: "fir", HasLabel: true}, "EGTT", "127.100")
	assert.Equal(t, "", s.Text.SecondLine)
}

func TestStyleFor_ThemeOverridesColour(t *testing.T) {
	m := NewMemoizer(DefaultPalette(), nil)

	s := m.StyleFor(Key{Colour: "fir", ThemeColour: "#ff0000"}, "", "")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, s.Fill.RGBA)
	assert.Equal(t, "rgba(255, 0, 0, 0.20)", s.Fill.CSS)
}

func TestStyleFor_UnresolvableColourFallsBack(t *testing.T) {
	m := NewMemoizer(DefaultPalette(), nil)

	s := m.StyleFor(Key{Colour: "no-such-colour"}, "", "")
	want, ok := parseHex(DefaultColour)
	require.True(t, ok)
	assert.Equal(t, want, s.Fill.RGBA)
}

func TestStyleFor_BrokenPaletteDefault(t *testing.T) {
	m := NewMemoizer(Palette{Default: "nonsense"}, nil)

	s := m.StyleFor(Key{Colour: "nothing"}, "", "")
	want, _ := parseHex(DefaultColour)
	assert.Equal(t, want, s.Fill.RGBA)
}

func TestStyleFor_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := observability.NewCollector(reg)
	require.NoError(t, err)
	m := NewMemoizer(DefaultPalette(), c)

	m.StyleFor(Key{Colour: "fir"}, "", "")
	m.StyleFor(Key{Colour: "fir"}, "", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StyleLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StyleLookups.WithLabelValues("hit")))
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#fff", color.RGBA{255, 255, 255, 255}, true},
		{"#102030", color.RGBA{0x10, 0x20, 0x30, 0xff}, true},
		{"10203040", color.RGBA{0x10, 0x20, 0x30, 0x40}, true},
		{"#12345", color.RGBA{}, false},
		{"#zzzzzz", color.RGBA{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseHex(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadPalette(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colours:\n  fir: \"#010203\"\n"), 0o644))

	p, err := LoadPalette(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultColour, p.Default)

	c, ok := p.Resolve("fir")
	require.True(t, ok)
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, c)

	_, err = LoadPalette(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestKeyForSector(t *testing.T) {
	tests := []struct {
		name       string
		sector     models.Sector
		wantKey    Key
		wantLabel  string
		wantSecond string
	}{
		{
			name: "fir with controller",
			sector: models.Sector{Kind: models.KindFir, PrimaryICAO: "EGTT",
				Controllers: []models.ControllerRef{{Frequency: "127.100"}}},
			wantKey:    Key{Colour: "fir", HasLabel: true, HasSecondLine: true},
			wantLabel:  "EGTT",
			wantSecond: "127.100",
		},
		{
			name:       "booked uir",
			sector:     models.Sector{Kind: models.KindUir, PrimaryICAO: "EGTT", SecondaryICAO: "EGGX", Booked: true},
			wantKey:    Key{Colour: "uir", Dashed: true, Booked: true, HasLabel: true, HasSecondLine: true},
			wantLabel:  "EGTT",
			wantSecond: "EGGX",
		},
		{
			name: "duplicated vatglasses",
			sector: models.Sector{Kind: models.KindVatglasses, Duplicated: true,
				Vatglasses: &models.VatglassesInfo{PositionID: "LON_S", Colour: "#00ff00"}},
			wantKey:   Key{Colour: "vatglasses", ThemeColour: "duplicated", HasLabel: true},
			wantLabel: "LON_S",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, label, second := KeyForSector(&tt.sector, false)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantSecond, second)
		})
	}
}
