package boundaries

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boundariesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": "KZLA"},
     "geometry": {"type": "Polygon", "coordinates": [[[-120,33],[-115,33],[-115,36],[-120,36],[-120,33]]]}},
    {"type": "Feature", "id": "EGTT",
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-2,50],[1,50],[1,53],[-2,53],[-2,50]]]]}},
    {"type": "Feature", "properties": {"id": "KZLA"},
     "geometry": {"type": "Polygon", "coordinates": [[[-125,30],[-121,30],[-121,32],[-125,32],[-125,30]]]}},
    {"type": "Feature", "properties": {"id": "POINT"},
     "geometry": {"type": "Point", "coordinates": [0, 0]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}
  ]
}`

func TestParse(t *testing.T) {
	idx, err := Parse([]byte(boundariesJSON))
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())

	zla, ok := idx.Lookup("KZLA")
	require.True(t, ok)
	assert.Len(t, zla, 2)

	egtt, ok := idx.Lookup("EGTT")
	require.True(t, ok)
	require.Len(t, egtt, 1)
	assert.Equal(t, orb.Point{-2, 50}, egtt[0][0][0])

	_, ok = idx.Lookup("POINT")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("not json"))
	assert.Error(t, err)
}

func TestParseFIRMetadata(t *testing.T) {
	input := strings.Join([]string{
		"; ICAO|NAME|PREFIX|BOUNDARY",
		"KZLA|Los Angeles Center|LAX|KZLA",
		"EGTT|London|LON|",
		"BAD|only two",
	}, "\n")

	meta, err := ParseFIRMetadata(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, meta, 2)
	assert.Equal(t, "Los Angeles Center", meta["KZLA"].Name)
	assert.Equal(t, "LON", meta["EGTT"].CallsignPrefix)
	assert.Equal(t, "EGTT", meta["EGTT"].Boundary)
}
