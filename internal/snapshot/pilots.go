package snapshot

import (
	"github.com/paulmach/orb"

	"sectorwatch/internal/models"
)

// Pilots indexes a roster's pilots by callsign. The first pilot wins when a
// callsign repeats.
type Pilots struct {
	list   []models.Pilot
	byCall map[string]int
}

func NewPilots(pilots []models.Pilot) *Pilots {
	p := &Pilots{list: pilots, byCall: make(map[string]int, len(pilots))}
	for i, pilot := range pilots {
		if _, ok := p.byCall[pilot.Callsign]; ok {
			continue
		}
		p.byCall[pilot.Callsign] = i
	}
	return p
}

// Locate implements resolver.EntityLocator
func (p *Pilots) Locate(callsign string) (orb.Point, int, bool) {
	if p == nil {
		return orb.Point{}, 0, false
	}
	i, ok := p.byCall[callsign]
	if !ok {
		return orb.Point{}, 0, false
	}
	pilot := p.list[i]
	return orb.Point{pilot.Longitude, pilot.Latitude}, pilot.Altitude, true
}

// All returns the pilots in roster order
func (p *Pilots) All() []models.Pilot {
	if p == nil {
		return nil
	}
	return p.list
}
