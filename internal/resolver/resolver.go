package resolver

import (
	"log/slog"

	"github.com/paulmach/orb"

	"sectorwatch/internal/geometry"
	"sectorwatch/internal/models"
	"sectorwatch/internal/observability"
)

const (
	// defaultMinAltitude applies when a sector has no floor
	defaultMinAltitude = -1000
	// defaultMaxAltitude applies when a sector has no ceiling
	defaultMaxAltitude = 100000
	// flightLevelThreshold separates flight level shorthand from feet
	flightLevelThreshold = 1000
	// minimumFacility is the highest facility level excluded from resolution
	// (delivery, ground, tower)
	minimumFacility = 4
)

// ControllingFrequency is the controller a point in space belongs to
type ControllingFrequency struct {
	Frequency      string `json:"frequency"`
	Callsign       string `json:"callsign"`
	PositionID     string `json:"position"`
	ControllerName string `json:"controller"`
	BandWidth      int    `json:"band_width"`
}

// EntityLocator resolves an entity id to its current position and altitude in feet
type EntityLocator interface {
	Locate(entityID string) (orb.Point, int, bool)
}

// Resolver answers "who controls this point" against the dynamic position index
type Resolver struct {
	arena    *geometry.Arena
	entities EntityLocator
	metrics  *observability.Collector
}

// New creates a resolver. entities and metrics may be nil.
func New(arena *geometry.Arena, entities EntityLocator, metrics *observability.Collector) *Resolver {
	if arena == nil {
		arena = geometry.NewArena()
	}
	return &Resolver{arena: arena, entities: entities, metrics: metrics}
}

// SetEntities swaps the locator used for entity lookups
func (r *Resolver) SetEntities(entities EntityLocator) {
	r.entities = entities
}

// ResolveFrequency returns the controller owning the entity's position. When
// the entity is unknown (or entityID is empty) target and targetAltitude are
// used. Among all matching sectors the one with the narrowest altitude band
// wins; the first match wins ties.
func (r *Resolver) ResolveFrequency(
	entityID string,
	index *models.ActivePositionIndex,
	definitions map[string]*models.AirspaceDefinition,
	target orb.Point,
	targetAltitude int,
) (*ControllingFrequency, bool) {
	point, altitude := target, targetAltitude
	if entityID != "" && r.entities != nil {
		if p, alt, ok := r.entities.Locate(entityID); ok {
			point, altitude = p, alt
		}
	}

	if index == nil || index.Len() == 0 || len(definitions) == 0 {
		r.metrics.ObserveResolution(false)
		return nil, false
	}

	var best *ControllingFrequency
	for gi := range index.Groups {
		group := &index.Groups[gi]
		def := definitions[group.ID]
		for pi := range group.Positions {
			pos := &group.Positions[pi]
			if len(pos.Data.Controllers) == 0 || len(pos.Data.AirspaceKeys) == 0 {
				continue
			}
			for _, key := range pos.Data.AirspaceKeys {
				airspace, ok := def.Lookup(key)
				if !ok {
					slog.Debug("Airspace key not found in definition", "group", group.ID, "position", pos.ID, "key", key)
					r.metrics.MissingDefinition()
					continue
				}
				for si := range airspace.Sectors {
					sector := &airspace.Sectors[si]
					lo, hi := NormalizeBand(sector.Min, sector.Max)
					if altitude < lo || altitude > hi {
						continue
					}
					if !r.arena.Contains(sector.ID, sector.Points, point) {
						continue
					}
					c := pos.Data.Controllers[0]
					if c.FacilityLevel <= minimumFacility {
						continue
					}
					width := hi - lo
					if best != nil && best.BandWidth <= width {
						continue
					}
					name := c.Name
					if name == "" {
						name = c.Callsign
					}
					best = &ControllingFrequency{
						Frequency:      c.Frequency,
						Callsign:       c.Callsign,
						PositionID:     pos.ID,
						ControllerName: name,
						BandWidth:      width,
					}
				}
			}
		}
	}

	r.metrics.ObserveResolution(best != nil)
	return best, best != nil
}

// NormalizeBand converts optional sector limits to feet. Values below 1000
// are read as flight levels and multiplied by 100, so a literal ceiling under
// 1000 ft cannot be expressed.
func NormalizeBand(floor, ceiling *int) (int, int) {
	lo, hi := defaultMinAltitude, defaultMaxAltitude
	if floor != nil {
		lo = *floor
		if lo < flightLevelThreshold {
			lo *= 100
		}
	}
	if ceiling != nil {
		hi = *ceiling
		if hi < flightLevelThreshold {
			hi *= 100
		}
	}
	return lo, hi
}
