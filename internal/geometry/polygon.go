package geometry

import (
	"github.com/paulmach/orb"
)

// RingContains is an even-odd ray casting test. The ring may or may not repeat
// its first vertex; degenerate rings never contain anything.
func RingContains(ring []orb.Point, p orb.Point) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > p[1]) != (yj > p[1]) &&
			p[0] < (xj-xi)*(p[1]-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Polygon turns a single ring of points into a closed orb.Polygon
func Polygon(points []orb.Point) orb.Polygon {
	ring := make(orb.Ring, len(points), len(points)+1)
	copy(ring, points)
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}
