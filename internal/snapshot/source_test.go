package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sectorwatch/internal/geometry"
)

const testRoster = `{
  "firs": [
    {"boundary": "KZLA", "icao": "KZLA", "callsign": "LAX_CTR",
     "assignments": [{"controller": {"cid": 1, "callsign": "LAX_CTR", "frequency": "125.800", "facility": 6}}]}
  ],
  "pilots": [
    {"cid": 10, "callsign": "AAL1", "latitude": 34.0, "longitude": -118.0, "altitude": 35000},
    {"cid": 11, "callsign": "AAL1", "latitude": 0, "longitude": 0, "altitude": 0}
  ]
}`

const testOwnership = `{
  "us": {
    "LAX_N": {"controllers": [{"cid": 1, "callsign": "LAX_N_CTR", "facility": 6}], "airspace_keys": [0]},
    "LAX_A": {"controllers": [{"cid": 2, "callsign": "LAX_A_CTR", "facility": 6}], "airspace_keys": [1]}
  }
}`

const testAirspace = `{
  "us": {"airspace": [
    {"id": "N", "sectors": [{"points": [[-120, 33], [-115, 33], [-115, 36], [-120, 36]], "max": 180}]},
    {"id": "A", "sectors": [{"points": [[-120, 33], [-115, 33], [-115, 36], [-120, 36]], "min": 180}]}
  ]}
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RosterFile, testRoster)
	writeFile(t, dir, OwnershipFile, testOwnership)
	writeFile(t, dir, DefinitionFile, testAirspace)

	arena := geometry.NewArena()
	src := NewSource(dir, arena)

	snap, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
	require.Len(t, snap.Roster.Firs, 1)
	assert.Equal(t, "LAX_CTR", snap.Roster.Firs[0].Callsign)

	// Document order is kept
	require.Len(t, snap.Ownership.Groups, 1)
	positions := snap.Ownership.Groups[0].Positions
	require.Len(t, positions, 2)
	assert.Equal(t, "LAX_N", positions[0].ID)
	assert.Equal(t, "LAX_A", positions[1].ID)

	// Every airspace polygon is registered
	assert.Equal(t, 2, arena.Live())
	def := snap.Definitions["us"]
	require.NotNil(t, def)
	assert.NotZero(t, def.Airspace[0].Sectors[0].ID)
	assert.NotEqual(t, def.Airspace[0].Sectors[0].ID, def.Airspace[1].Sectors[0].ID)
}

func TestSource_MissingFiles(t *testing.T) {
	src := NewSource(t.TempDir(), nil)

	snap, err := src.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Roster.Firs)
	assert.Zero(t, snap.Ownership.Len())
	assert.Empty(t, snap.Definitions)
}

func TestSource_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RosterFile, "{not json")

	_, err := NewSource(dir, nil).Load()
	assert.Error(t, err)
}

func TestSource_SnapshotsAreIsolated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RosterFile, testRoster)

	src := NewSource(dir, nil)
	first, err := src.Load()
	require.NoError(t, err)
	first.Roster.Firs[0].Callsign = "MUTATED"
	first.Roster.Firs[0].Assignments[0].Controller.CID = 99

	second, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, "LAX_CTR", second.Roster.Firs[0].Callsign)
	assert.Equal(t, 1, second.Roster.Firs[0].Assignments[0].Controller.CID)
	assert.Equal(t, uint64(2), second.Generation)
}

func TestSource_DefinitionsReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefinitionFile, testAirspace)

	arena := geometry.NewArena()
	src := NewSource(dir, arena)

	first, err := src.Load()
	require.NoError(t, err)
	firstID := first.Definitions["us"].Airspace[0].Sectors[0].ID

	// Unchanged file keeps ids
	second, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, firstID, second.Definitions["us"].Airspace[0].Sectors[0].ID)

	// Warm the bounds cache, then rewrite the file with a newer mtime
	arena.Bound(firstID, first.Definitions["us"].Airspace[0].Sectors[0].Points)
	assert.Equal(t, 1, arena.Cached())

	path := filepath.Join(dir, DefinitionFile)
	writeFile(t, dir, DefinitionFile, testAirspace)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	third, err := src.Load()
	require.NoError(t, err)
	assert.NotEqual(t, firstID, third.Definitions["us"].Airspace[0].Sectors[0].ID)
	assert.Equal(t, 2, arena.Live())
	assert.Zero(t, arena.Cached())
}

func TestPilots_Locate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RosterFile, testRoster)

	snap, err := NewSource(dir, nil).Load()
	require.NoError(t, err)

	p, alt, ok := snap.Pilots.Locate("AAL1")
	require.True(t, ok)
	assert.Equal(t, orb.Point{-118.0, 34.0}, p)
	assert.Equal(t, 35000, alt)

	_, _, ok = snap.Pilots.Locate("UAL2")
	assert.False(t, ok)

	var nilPilots *Pilots
	_, _, ok = nilPilots.Locate("AAL1")
	assert.False(t, ok)
	assert.Len(t, snap.Pilots.All(), 2)
}
