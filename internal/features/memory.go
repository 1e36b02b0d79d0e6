package features

import (
	"fmt"
	"sort"

	"sectorwatch/internal/models"
)

// MemoryStore keeps features in process memory. Get hands out the stored
// pointer, so in-place edits followed by Update never copy geometry.
type MemoryStore struct {
	sectors map[string]*models.Sector
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sectors: make(map[string]*models.Sector)}
}

func (m *MemoryStore) Get(id string) (*models.Sector, error) {
	s, ok := m.sectors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Add(sector *models.Sector) error {
	if _, ok := m.sectors[sector.ID]; ok {
		return fmt.Errorf("feature %s already exists", sector.ID)
	}
	m.sectors[sector.ID] = sector
	return nil
}

func (m *MemoryStore) Update(sector *models.Sector) error {
	existing, ok := m.sectors[sector.ID]
	if !ok {
		return ErrNotFound
	}
	if existing != sector {
		existing.PrimaryICAO = sector.PrimaryICAO
		existing.SecondaryICAO = sector.SecondaryICAO
		existing.Booked = sector.Booked
		existing.Duplicated = sector.Duplicated
		existing.Controllers = sector.Controllers
	}
	return nil
}

func (m *MemoryStore) Remove(id string) error {
	delete(m.sectors, id)
	return nil
}

// All returns the stored features ordered by id
func (m *MemoryStore) All() ([]*models.Sector, error) {
	out := make([]*models.Sector, 0, len(m.sectors))
	for _, s := range m.sectors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len returns the number of stored features
func (m *MemoryStore) Len() int {
	return len(m.sectors)
}
