package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB owns the SQLite connection backing the persistent feature store
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

func optimizeSQLite(db *sql.DB) error {
	// WAL lets the exporter read while a pass writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA temp_store=MEMORY"); err != nil {
		return fmt.Errorf("failed to set temp_store: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// SectorStore returns the feature store backed by this database
func (d *DB) SectorStore() *SectorStore {
	return NewSectorStore(d.db)
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	sectorsSchema := `CREATE TABLE IF NOT EXISTS sectors (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		vg_sector_id TEXT,
		primary_icao TEXT,
		secondary_icao TEXT,
		booked INTEGER NOT NULL DEFAULT 0,
		duplicated INTEGER NOT NULL DEFAULT 0,
		controllers BLOB,
		geometry BLOB NOT NULL,
		country_group TEXT,
		position_id TEXT,
		min_altitude INTEGER,
		max_altitude INTEGER,
		colour TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_sectors_kind ON sectors(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_sectors_vg_sector_id ON sectors(vg_sector_id)`,
	}

	if _, err := d.db.Exec(sectorsSchema); err != nil {
		return fmt.Errorf("failed to create sectors table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
