package boundaries

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Index maps a boundary identifier to its stored shape
type Index struct {
	shapes map[string]orb.MultiPolygon
}

// NewIndex builds an index from already materialised shapes
func NewIndex(shapes map[string]orb.MultiPolygon) *Index {
	if shapes == nil {
		shapes = make(map[string]orb.MultiPolygon)
	}
	return &Index{shapes: shapes}
}

// Lookup returns the shape stored for a boundary identifier
func (i *Index) Lookup(boundary string) (orb.MultiPolygon, bool) {
	mp, ok := i.shapes[boundary]
	return mp, ok
}

func (i *Index) Len() int {
	return len(i.shapes)
}

// Load reads a GeoJSON FeatureCollection of boundaries. Each feature needs an
// "id" property (or a string feature id) and polygon geometry; anything else
// is skipped. Features sharing an id are merged into one multipolygon.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boundaries file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes boundaries from GeoJSON bytes
func Parse(data []byte) (*Index, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode boundaries: %w", err)
	}

	idx := NewIndex(nil)
	skipped := 0
	for _, f := range fc.Features {
		id := featureID(f)
		if id == "" {
			skipped++
			continue
		}

		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		case nil:
			slog.Warn("Skipping boundary without geometry", "boundary", id)
			skipped++
			continue
		default:
			slog.Warn("Skipping boundary with non-areal geometry", "boundary", id, "geometry", f.Geometry.GeoJSONType())
			skipped++
			continue
		}
		idx.shapes[id] = append(idx.shapes[id], mp...)
	}

	slog.Info("Loaded boundaries", "count", idx.Len(), "skipped", skipped)
	return idx, nil
}

func featureID(f *geojson.Feature) string {
	if id := f.Properties.MustString("id", ""); id != "" {
		return id
	}
	if id, ok := f.ID.(string); ok {
		return id
	}
	return ""
}
