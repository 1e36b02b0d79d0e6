package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"sectorwatch/internal/boundaries"
	"sectorwatch/internal/models"
	"sectorwatch/internal/resolver"
	"sectorwatch/internal/style"
)

// PilotPosition is a pilot with the frequency controlling its position, if any
type PilotPosition struct {
	Pilot     models.Pilot
	Frequency *resolver.ControllingFrequency
}

// Builder turns sector features and pilots into a styled GeoJSON collection
type Builder struct {
	styles *style.Memoizer
	firs   map[string]boundaries.FIRInfo
}

// NewBuilder creates a builder. firs may be nil; when set it supplies
// display names keyed by ICAO.
func NewBuilder(styles *style.Memoizer, firs map[string]boundaries.FIRInfo) *Builder {
	return &Builder{styles: styles, firs: firs}
}

// Build renders every sector followed by every pilot
func (b *Builder) Build(sectors []*models.Sector, pilots []PilotPosition) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range sectors {
		if s.Geometry == nil {
			continue
		}
		fc.Append(b.sectorFeature(s))
	}
	for _, p := range pilots {
		fc.Append(pilotFeature(p))
	}
	return fc
}

func (b *Builder) sectorFeature(s *models.Sector) *geojson.Feature {
	f := geojson.NewFeature(s.Geometry)
	f.ID = s.ID
	f.Properties["kind"] = s.Kind.String()
	f.Properties["icao"] = s.PrimaryICAO
	f.Properties["booked"] = s.Booked
	f.Properties["duplicated"] = s.Duplicated
	if s.SecondaryICAO != "" {
		f.Properties["secondary_icao"] = s.SecondaryICAO
	}
	if info, ok := b.firs[s.PrimaryICAO]; ok && info.Name != "" {
		f.Properties["name"] = info.Name
	}

	callsigns := make([]string, 0, len(s.Controllers))
	for _, c := range s.Controllers {
		callsigns = append(callsigns, c.Callsign)
	}
	f.Properties["controllers"] = callsigns

	if vg := s.Vatglasses; vg != nil {
		f.Properties["vg_sector_id"] = vg.VGSectorID
		f.Properties["country_group"] = vg.CountryGroupID
		f.Properties["position"] = vg.PositionID
		if vg.MinAltitude != nil {
			f.Properties["min_altitude"] = *vg.MinAltitude
		}
		if vg.MaxAltitude != nil {
			f.Properties["max_altitude"] = *vg.MaxAltitude
		}
	}

	// The memoized style is shared and relabelled on the next lookup, so its
	// values are copied out here
	key, label, second := style.KeyForSector(s, false)
	st := b.styles.StyleFor(key, label, second)
	f.Properties["fill"] = st.Fill.CSS
	f.Properties["stroke"] = st.Stroke.CSS
	f.Properties["stroke_width"] = st.Stroke.Width
	if len(st.Stroke.Dash) > 0 {
		f.Properties["stroke_dash"] = append([]float64(nil), st.Stroke.Dash...)
	}
	if st.Text != nil {
		f.Properties["label"] = st.Text.Label
		f.Properties["font"] = st.Text.Font
		f.Properties["text_colour"] = st.Text.CSS
		if st.Text.SecondLine != "" {
			f.Properties["second_line"] = st.Text.SecondLine
		}
	}
	return f
}

func pilotFeature(p PilotPosition) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{p.Pilot.Longitude, p.Pilot.Latitude})
	f.ID = p.Pilot.Callsign
	f.Properties["kind"] = "Pilot"
	f.Properties["cid"] = p.Pilot.CID
	f.Properties["callsign"] = p.Pilot.Callsign
	f.Properties["altitude"] = p.Pilot.Altitude
	if p.Frequency != nil {
		f.Properties["frequency"] = p.Frequency.Frequency
		f.Properties["controller"] = p.Frequency.Callsign
		f.Properties["controller_position"] = p.Frequency.PositionID
	}
	return f
}

// WriteFile writes fc to path through a temporary file in the same directory
// so readers never see a partial document
func WriteFile(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode feature collection: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
