package database

import (
	"database/sql"
	"fmt"

	"github.com/paulmach/orb/encoding/wkb"
	"github.com/vmihailenco/msgpack/v5"

	"sectorwatch/internal/features"
	"sectorwatch/internal/models"
)

const sectorColumns = `id, kind, vg_sector_id, primary_icao, secondary_icao, booked, duplicated,
	controllers, geometry, country_group, position_id, min_altitude, max_altitude, colour`

// SectorStore persists sector features in SQLite so a restart resumes with
// the previous generation instead of rebuilding every feature. Geometry is
// stored as WKB and controller lists as msgpack.
type SectorStore struct {
	db *sql.DB
}

var _ features.Store = (*SectorStore)(nil)

func NewSectorStore(db *sql.DB) *SectorStore {
	return &SectorStore{db: db}
}

func (s *SectorStore) Get(id string) (*models.Sector, error) {
	row := s.db.QueryRow(`SELECT `+sectorColumns+` FROM sectors WHERE id = ?`, id)
	sector, err := scanSector(row)
	if err == sql.ErrNoRows {
		return nil, features.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sector %s: %w", id, err)
	}
	return sector, nil
}

func (s *SectorStore) Add(sector *models.Sector) error {
	geom, err := wkb.Marshal(sector.Geometry)
	if err != nil {
		return fmt.Errorf("failed to encode geometry: %w", err)
	}
	controllers, err := msgpack.Marshal(sector.Controllers)
	if err != nil {
		return fmt.Errorf("failed to encode controllers: %w", err)
	}

	var vgID, group, position, colour sql.NullString
	var minAlt, maxAlt sql.NullInt64
	if vg := sector.Vatglasses; vg != nil {
		vgID = sql.NullString{String: vg.VGSectorID, Valid: true}
		group = sql.NullString{String: vg.CountryGroupID, Valid: true}
		position = sql.NullString{String: vg.PositionID, Valid: true}
		colour = sql.NullString{String: vg.Colour, Valid: true}
		if vg.MinAltitude != nil {
			minAlt = sql.NullInt64{Int64: int64(*vg.MinAltitude), Valid: true}
		}
		if vg.MaxAltitude != nil {
			maxAlt = sql.NullInt64{Int64: int64(*vg.MaxAltitude), Valid: true}
		}
	}

	_, err = s.db.Exec(`INSERT INTO sectors (`+sectorColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sector.ID, sector.Kind.String(), vgID, sector.PrimaryICAO, sector.SecondaryICAO,
		sector.Booked, sector.Duplicated, controllers, geom,
		group, position, minAlt, maxAlt, colour,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sector %s: %w", sector.ID, err)
	}
	return nil
}

func (s *SectorStore) Update(sector *models.Sector) error {
	controllers, err := msgpack.Marshal(sector.Controllers)
	if err != nil {
		return fmt.Errorf("failed to encode controllers: %w", err)
	}

	res, err := s.db.Exec(`UPDATE sectors SET
		primary_icao = ?, secondary_icao = ?, booked = ?, duplicated = ?, controllers = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		sector.PrimaryICAO, sector.SecondaryICAO, sector.Booked, sector.Duplicated, controllers, sector.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sector %s: %w", sector.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update sector %s: %w", sector.ID, err)
	}
	if n == 0 {
		return features.ErrNotFound
	}
	return nil
}

func (s *SectorStore) Remove(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sectors WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete sector %s: %w", id, err)
	}
	return nil
}

// All returns every stored sector ordered by id
func (s *SectorStore) All() ([]*models.Sector, error) {
	rows, err := s.db.Query(`SELECT ` + sectorColumns + ` FROM sectors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}
	defer rows.Close()

	var out []*models.Sector
	for rows.Next() {
		sector, err := scanSector(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		out = append(out, sector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sectors: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSector(row scanner) (*models.Sector, error) {
	var (
		sector                        models.Sector
		kind                          string
		vgID, group, position, colour sql.NullString
		minAlt, maxAlt                sql.NullInt64
		controllers, geom             []byte
	)
	if err := row.Scan(
		&sector.ID, &kind, &vgID, &sector.PrimaryICAO, &sector.SecondaryICAO,
		&sector.Booked, &sector.Duplicated, &controllers, &geom,
		&group, &position, &minAlt, &maxAlt, &colour,
	); err != nil {
		return nil, err
	}

	k, err := models.ParseSectorKind(kind)
	if err != nil {
		return nil, err
	}
	sector.Kind = k

	if len(controllers) > 0 {
		if err := msgpack.Unmarshal(controllers, &sector.Controllers); err != nil {
			return nil, fmt.Errorf("failed to decode controllers: %w", err)
		}
	}

	sector.Geometry, err = wkb.Unmarshal(geom)
	if err != nil {
		return nil, fmt.Errorf("failed to decode geometry: %w", err)
	}

	if k == models.KindVatglasses {
		vg := &models.VatglassesInfo{
			VGSectorID:     vgID.String,
			CountryGroupID: group.String,
			PositionID:     position.String,
			Colour:         colour.String,
		}
		if minAlt.Valid {
			v := int(minAlt.Int64)
			vg.MinAltitude = &v
		}
		if maxAlt.Valid {
			v := int(maxAlt.Int64)
			vg.MaxAltitude = &v
		}
		sector.Vatglasses = vg
	}
	return &sector, nil
}
