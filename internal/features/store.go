package features

import (
	"errors"

	"sectorwatch/internal/models"
)

// ErrNotFound is returned by Get when no feature has the requested id
var ErrNotFound = errors.New("feature not found")

// Store is the mutable collection of renderable sector features, keyed by id.
// Update persists the non-geometric fields of a feature previously returned by
// Get; geometry is written only by Add.
type Store interface {
	Get(id string) (*models.Sector, error)
	Add(sector *models.Sector) error
	Update(sector *models.Sector) error
	Remove(id string) error
	All() ([]*models.Sector, error)
}
