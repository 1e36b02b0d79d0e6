package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mohae/deepcopy"

	"sectorwatch/internal/geometry"
	"sectorwatch/internal/models"
)

const (
	RosterFile     = "roster.json"
	OwnershipFile  = "ownership.json"
	DefinitionFile = "airspace.json"
)

// Snapshot is one refresh generation. Roster and Ownership are private copies
// owned by the caller; Definitions are shared and must be treated as read-only.
type Snapshot struct {
	Generation  uint64
	Roster      models.Roster
	Ownership   *models.ActivePositionIndex
	Definitions map[string]*models.AirspaceDefinition
	Pilots      *Pilots
}

// Source reads the generation files from a data directory. Each file is only
// decoded again when its modification time changes.
type Source struct {
	dir   string
	arena *geometry.Arena

	mu          sync.Mutex
	generation  uint64
	roster      cachedFile[models.Roster]
	ownership   cachedFile[models.ActivePositionIndex]
	definitions cachedFile[map[string]*models.AirspaceDefinition]
	registered  []geometry.PolygonID
}

type cachedFile[T any] struct {
	modTime time.Time
	loaded  bool
	value   T
}

// NewSource creates a source reading from dir. Airspace polygons are
// registered with arena so their bounding boxes can be cached.
func NewSource(dir string, arena *geometry.Arena) *Source {
	if arena == nil {
		arena = geometry.NewArena()
	}
	return &Source{dir: dir, arena: arena}
}

// Load returns the current generation. Missing files yield empty data.
func (s *Source) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := refresh(filepath.Join(s.dir, RosterFile), &s.roster); err != nil {
		return nil, err
	}
	if _, err := refresh(filepath.Join(s.dir, OwnershipFile), &s.ownership); err != nil {
		return nil, err
	}
	changed, err := refresh(filepath.Join(s.dir, DefinitionFile), &s.definitions)
	if err != nil {
		return nil, err
	}
	if changed {
		s.registerDefinitions()
	}

	s.generation++
	roster := deepcopy.Copy(s.roster.value).(models.Roster)
	ownership := deepcopy.Copy(s.ownership.value).(models.ActivePositionIndex)

	return &Snapshot{
		Generation:  s.generation,
		Roster:      roster,
		Ownership:   &ownership,
		Definitions: s.definitions.value,
		Pilots:      NewPilots(roster.Pilots),
	}, nil
}

// registerDefinitions gives every polygon of the freshly decoded definitions
// an arena id and releases the previous generation's ids
func (s *Source) registerDefinitions() {
	s.arena.Release(s.registered...)
	s.registered = s.registered[:0]

	for _, def := range s.definitions.value {
		if def == nil {
			continue
		}
		for ai := range def.Airspace {
			sectors := def.Airspace[ai].Sectors
			for si := range sectors {
				sectors[si].ID = s.arena.Register()
				s.registered = append(s.registered, sectors[si].ID)
			}
		}
	}
	slog.Info("Registered airspace polygons", "groups", len(s.definitions.value), "polygons", len(s.registered))
}

// refresh decodes path into c when its modification time moved. It reports
// whether c was replaced.
func refresh[T any](path string, c *cachedFile[T]) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if !c.loaded {
			return false, nil
		}
		slog.Warn("Data file disappeared, clearing", "path", path)
		*c = cachedFile[T]{}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if c.loaded && info.ModTime().Equal(c.modTime) {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	slog.Debug("Loaded data file", "path", path, "bytes", len(data))
	*c = cachedFile[T]{modTime: info.ModTime(), loaded: true, value: value}
	return true, nil
}
