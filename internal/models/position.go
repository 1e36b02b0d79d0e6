package models

import (
	"encoding/json"
	"fmt"

	"github.com/iancoleman/orderedmap"
	"github.com/paulmach/orb"

	"sectorwatch/internal/geometry"
)

// AltitudeBandedPolygon is a polygon ring with an optional vertical extent.
// A nil Min means ground, a nil Max means unlimited.
type AltitudeBandedPolygon struct {
	Points []orb.Point `json:"points"` // lon/lat, decimal degrees
	Min    *int        `json:"min,omitempty"`
	Max    *int        `json:"max,omitempty"`

	// ID is assigned when the polygon is registered with a geometry.Arena
	ID geometry.PolygonID `json:"-"`
}

// Airspace is one entry of a country group's airspace list
type Airspace struct {
	ID      string                  `json:"id"`
	Group   string                  `json:"group"`
	Sectors []AltitudeBandedPolygon `json:"sectors"`
}

// AirspaceDefinition is the static airspace data of one country group,
// addressed by position within the list (the airspace key)
type AirspaceDefinition struct {
	Airspace []Airspace `json:"airspace"`
}

// Lookup returns the airspace stored under key
func (d *AirspaceDefinition) Lookup(key int) (*Airspace, bool) {
	if d == nil || key < 0 || key >= len(d.Airspace) {
		return nil, false
	}
	return &d.Airspace[key], true
}

// PositionData is what the ownership computation assigned to one logical position
type PositionData struct {
	Controllers     []ControllerRef         `json:"controllers"`
	AirspaceKeys    []int                   `json:"airspace_keys"`
	Sectors         []AltitudeBandedPolygon `json:"sectors"`
	SectorsCombined []AltitudeBandedPolygon `json:"sectors_combined"`
	Colour          string                  `json:"colour,omitempty"`
}

// Active reports whether the position has both controllers and airspace
func (p *PositionData) Active() bool {
	return len(p.Controllers) > 0 && len(p.AirspaceKeys) > 0
}

type PositionEntry struct {
	ID   string
	Data PositionData
}

type CountryGroup struct {
	ID        string
	Positions []PositionEntry
}

// ActivePositionIndex maps countryGroupId -> positionId -> PositionData.
// Groups and positions keep the order of the source document.
type ActivePositionIndex struct {
	Groups []CountryGroup
}

// Each visits every position in document order
func (idx *ActivePositionIndex) Each(fn func(groupID, positionID string, pos *PositionData)) {
	if idx == nil {
		return
	}
	for gi := range idx.Groups {
		g := &idx.Groups[gi]
		for pi := range g.Positions {
			fn(g.ID, g.Positions[pi].ID, &g.Positions[pi].Data)
		}
	}
}

// Len returns the number of positions across all country groups
func (idx *ActivePositionIndex) Len() int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, g := range idx.Groups {
		n += len(g.Positions)
	}
	return n
}

// UnmarshalJSON decodes the nested object form while keeping key order
func (idx *ActivePositionIndex) UnmarshalJSON(data []byte) error {
	order := orderedmap.New()
	if err := json.Unmarshal(data, order); err != nil {
		return fmt.Errorf("failed to decode position index: %w", err)
	}
	var raw map[string]map[string]PositionData
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode position index: %w", err)
	}

	idx.Groups = nil
	for _, gid := range order.Keys() {
		v, _ := order.Get(gid)
		var positionIDs []string
		switch inner := v.(type) {
		case orderedmap.OrderedMap:
			positionIDs = inner.Keys()
		case *orderedmap.OrderedMap:
			positionIDs = inner.Keys()
		case nil:
		default:
			return fmt.Errorf("country group %q is not an object", gid)
		}

		group := CountryGroup{ID: gid}
		for _, pid := range positionIDs {
			group.Positions = append(group.Positions, PositionEntry{ID: pid, Data: raw[gid][pid]})
		}
		idx.Groups = append(idx.Groups, group)
	}
	return nil
}

// MarshalJSON writes the nested object form in index order
func (idx ActivePositionIndex) MarshalJSON() ([]byte, error) {
	out := orderedmap.New()
	for _, g := range idx.Groups {
		inner := orderedmap.New()
		for _, p := range g.Positions {
			inner.Set(p.ID, p.Data)
		}
		out.Set(g.ID, inner)
	}
	return json.Marshal(out)
}
