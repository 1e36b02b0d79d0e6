package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minX, minY, maxX, maxY float64) []orb.Point {
	return []orb.Point{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}
}

func TestRingContains(t *testing.T) {
	ring := square(0, 0, 10, 10)
	concave := []orb.Point{{0, 0}, {10, 0}, {10, 10}, {5, 5}, {0, 10}}

	tests := []struct {
		name string
		ring []orb.Point
		p    orb.Point
		want bool
	}{
		{"inside", ring, orb.Point{5, 5}, true},
		{"outside", ring, orb.Point{15, 5}, false},
		{"below", ring, orb.Point{5, -1}, false},
		{"concave notch", concave, orb.Point{5, 8}, false},
		{"concave body", concave, orb.Point{5, 2}, true},
		{"degenerate", []orb.Point{{0, 0}, {1, 1}}, orb.Point{0.5, 0.5}, false},
		{"empty", nil, orb.Point{0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RingContains(tt.ring, tt.p))
		})
	}
}

func TestArena_CachesBoundsForRegisteredPolygons(t *testing.T) {
	a := NewArena()
	ring := square(0, 0, 10, 10)
	id := a.Register()

	assert.True(t, a.Contains(id, ring, orb.Point{5, 5}))
	assert.Equal(t, 1, a.Cached())

	b := a.Bound(id, ring)
	assert.Equal(t, orb.Point{0, 0}, b.Min)
	assert.Equal(t, orb.Point{10, 10}, b.Max)
}

func TestArena_RejectsOutsideBoundingBox(t *testing.T) {
	a := NewArena()
	id := a.Register()
	ring := square(0, 0, 10, 10)

	// Prime the cache with the real ring, then ask with a ring that would
	// contain the point: the cached box must win.
	require.False(t, a.Contains(id, ring, orb.Point{20, 20}))
	assert.False(t, a.Contains(id, square(0, 0, 30, 30), orb.Point{20, 20}))
}

func TestArena_ReleaseEvicts(t *testing.T) {
	a := NewArena()
	first := a.Register()
	second := a.Register()
	ring := square(0, 0, 1, 1)

	a.Contains(first, ring, orb.Point{0.5, 0.5})
	a.Contains(second, ring, orb.Point{0.5, 0.5})
	require.Equal(t, 2, a.Cached())

	a.Release(first)
	assert.Equal(t, 1, a.Cached())
	assert.Equal(t, 1, a.Live())
	assert.NotEqual(t, first, second)
}

func TestArena_UnregisteredIsNotCached(t *testing.T) {
	a := NewArena()

	assert.True(t, a.Contains(0, square(0, 0, 10, 10), orb.Point{1, 1}))
	assert.Equal(t, 0, a.Cached())
}

func TestPolygon_ClosesRing(t *testing.T) {
	poly := Polygon(square(0, 0, 1, 1))

	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 5)
	assert.True(t, poly[0].Closed())
}
