package geometry

import (
	"github.com/paulmach/orb"
)

// PolygonID is a stable handle for a registered polygon ring. The zero value
// means "not registered".
type PolygonID uint64

// Arena hands out PolygonIDs and caches the bounding box of each registered
// ring. Bounds are computed on first lookup and evicted when the slot is
// released, so a rebuilt polygon set never shares stale bounds.
//
// Arena is not safe for concurrent use; callers own it for the lifetime of
// the refresh loop.
type Arena struct {
	next   PolygonID
	live   map[PolygonID]struct{}
	bounds map[PolygonID]orb.Bound
}

// NewArena creates an empty arena
func NewArena() *Arena {
	return &Arena{
		live:   make(map[PolygonID]struct{}),
		bounds: make(map[PolygonID]orb.Bound),
	}
}

// Register allocates a new id for a polygon
func (a *Arena) Register() PolygonID {
	a.next++
	a.live[a.next] = struct{}{}
	return a.next
}

// Release frees the given ids and drops their cached bounds
func (a *Arena) Release(ids ...PolygonID) {
	for _, id := range ids {
		delete(a.live, id)
		delete(a.bounds, id)
	}
}

// Live returns the number of registered polygons
func (a *Arena) Live() int {
	return len(a.live)
}

// Cached returns the number of polygons whose bounds have been computed
func (a *Arena) Cached() int {
	return len(a.bounds)
}

// Bound returns the bounding box of the ring registered as id, computing and
// caching it on first sight. Unregistered ids are never cached.
func (a *Arena) Bound(id PolygonID, ring []orb.Point) orb.Bound {
	if b, ok := a.bounds[id]; ok {
		return b
	}
	b := orb.Ring(ring).Bound()
	if _, ok := a.live[id]; ok {
		a.bounds[id] = b
	}
	return b
}

// Contains reports whether p lies inside the ring registered as id. Points
// outside the cached bounding box are rejected before ray casting.
func (a *Arena) Contains(id PolygonID, ring []orb.Point, p orb.Point) bool {
	if len(ring) < 3 {
		return false
	}
	if !a.Bound(id, ring).Contains(p) {
		return false
	}
	return RingContains(ring, p)
}
